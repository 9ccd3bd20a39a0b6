package backups

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habittasker/internal/backup"
	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/constants"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	// Write out anything pending so the backup is current.
	if err := ctx.CloseStore(); err != nil {
		return err
	}

	backupPath, err := ctx.Backups().CreateBackup()
	if errors.Is(err, backup.ErrNoSource) {
		return fmt.Errorf("nothing to back up yet: %s does not exist", ctx.Config.DataPath)
	}
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.Printf("✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups()
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Printf("No backups found.\n")
		ctx.Printf("Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), b.Name(), float64(b.Size)/1024.0)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.GetBackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups()

	// A file in the working directory wins over one of the same name in the
	// backup directory.
	backupPath := c.BackupFile
	if _, err := os.Stat(backupPath); err != nil {
		backupPath = mgr.Resolve(c.BackupFile)
		if _, err := os.Stat(backupPath); err != nil {
			return fmt.Errorf("backup file not found: tried %s and %s", c.BackupFile, mgr.GetBackupDir())
		}
	}
	if abs, err := filepath.Abs(backupPath); err == nil {
		backupPath = abs
	}

	if !c.Yes {
		ctx.Printf("⚠️  This replaces your current habits with the backup.\n")
		ctx.Printf("   Close any running habittasker TUI first; it would overwrite the restore on its next save.\n")
		ctx.Printf("   A backup of the current data is taken before restoring.\n\n")
		ctx.Printf("Restore from: %s\n", backupPath)
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Printf("Restore cancelled.\n")
			return nil
		}
	}

	if err := ctx.CloseStore(); err != nil {
		return err
	}

	previous, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if previous != "" {
		ctx.Printf("Previous data saved as %s\n", filepath.Base(previous))
	}
	ctx.Printf("✓ Restored %s\n", filepath.Base(backupPath))
	return nil
}
