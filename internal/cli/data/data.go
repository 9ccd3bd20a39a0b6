package data

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/storage"
)

type ExportCmd struct {
	Out string `short:"o" help:"Output file, directory or '-' for stdout (default: HabitTasker-YYYY-MM-DD.json in the current directory)."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}

	data, name, err := store.Export(ctx.Now())
	if err != nil {
		return err
	}

	if c.Out == "-" {
		_, err := ctx.Out.Write(data)
		return err
	}

	dest := name
	if c.Out != "" {
		dest = c.Out
		if info, err := os.Stat(c.Out); err == nil && info.IsDir() {
			dest = filepath.Join(c.Out, name)
		}
	}
	if err := storage.WriteFileAtomic(dest, data, 0644); err != nil {
		return err
	}
	ctx.Printf("Exported %d habits to %s\n", len(store.Habits()), dest)
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"Snapshot file to import, or '-' for stdin."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	var (
		data []byte
		err  error
	)
	if c.File == "-" {
		data, err = io.ReadAll(ctx.In)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	store, err := ctx.Habits()
	if err != nil {
		return err
	}
	if err := store.Import(data); err != nil {
		return err
	}
	ctx.Printf("Imported %d habits. The previous data was backed up to %s\n", len(store.Habits()), ctx.Backups().GetBackupDir())
	return nil
}

type ResetCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *ResetCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		ok, err := ctx.Confirm("Delete all habits and their history?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Printf("Cancelled.\n")
			return nil
		}
	}

	store, err := ctx.Habits()
	if err != nil {
		return err
	}
	if err := store.Reset(); err != nil {
		return err
	}
	ctx.Printf("All habits deleted. A backup was saved in %s\n", ctx.Backups().GetBackupDir())
	return nil
}
