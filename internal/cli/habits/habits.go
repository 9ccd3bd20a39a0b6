package habits

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/validation"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit a habit's name, icon or color."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
	List   HabitListCmd   `cmd:"" help:"List habits." default:"1"`
	Move   HabitMoveCmd   `cmd:"" help:"Move a habit up or down the list."`
}

type HabitAddCmd struct {
	Name  string `arg:"" help:"Habit name."`
	Icon  string `help:"Icon, at most two characters (default ⭐️)."`
	Color string `help:"Color as RRGGBB or AARRGGBB (default FFD60A)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}

	in := validation.HabitInput{Name: c.Name, Icon: c.Icon, ColorHex: c.Color}.Normalize()
	res := validation.New().ValidateInput(in, store.Habits(), "")
	if err := res.Err(); err != nil {
		return fmt.Errorf("cannot add habit: %w", err)
	}

	h := store.AddHabit(in.Name, in.Icon, in.ColorHex)
	ctx.Printf("Added habit: %s (%s)\n", cli.Label(h), h.ID)
	return nil
}

type HabitEditCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Name  string `help:"New name."`
	Icon  string `help:"New icon."`
	Color string `help:"New color as RRGGBB or AARRGGBB."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}
	habits := store.Habits()
	h, err := cli.ResolveHabit(habits, c.Habit)
	if err != nil {
		return err
	}
	if c.Name == "" && c.Icon == "" && c.Color == "" {
		return fmt.Errorf("nothing to change; pass --name, --icon or --color")
	}

	in := validation.HabitInput{Name: h.Name, Icon: h.Icon, ColorHex: h.ColorHex}
	if c.Name != "" {
		in.Name = c.Name
	}
	if c.Icon != "" {
		in.Icon = c.Icon
	}
	if c.Color != "" {
		in.ColorHex = c.Color
	}
	in = in.Normalize()

	res := validation.New().ValidateInput(in, habits, h.ID)
	if err := res.Err(); err != nil {
		return fmt.Errorf("cannot edit habit: %w", err)
	}

	if err := store.EditHabit(h.ID, in.Name, in.Icon, in.ColorHex); err != nil {
		return err
	}
	ctx.Printf("Updated habit: %s\n", cli.Label(models.Habit{Name: in.Name, Icon: in.Icon}))
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}
	h, err := cli.ResolveHabit(store.Habits(), c.Habit)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete %q and all of its history?", h.Name))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Printf("Cancelled.\n")
			return nil
		}
	}

	if err := store.DeleteHabit(h.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", cli.Label(h))
	return nil
}

type HabitListCmd struct {
	IDs bool `help:"Show habit ids."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}

	habits := store.Habits()
	if len(habits) == 0 {
		ctx.Printf("No habits yet. Add one with 'habittasker habit add NAME'.\n")
		return nil
	}

	width := 0
	for _, h := range habits {
		width = max(width, len([]rune(h.Name)))
	}
	for i, h := range habits {
		line := fmt.Sprintf("%2d. %s %-*s  #%s", i+1, h.Icon, width, h.Name, strings.ToUpper(h.ColorHex))
		if c.IDs {
			line += "  " + h.ID
		}
		ctx.Printf("%s\n", strings.TrimRight(line, " "))
	}
	return nil
}

type HabitMoveCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	By    int    `arg:"" optional:"" help:"Positions to move; negative moves up." default:"-1"`
}

func (c *HabitMoveCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}
	h, err := cli.ResolveHabit(store.Habits(), c.Habit)
	if err != nil {
		return err
	}
	if err := store.MoveHabit(h.ID, c.By); err != nil {
		return err
	}
	for i, moved := range store.Habits() {
		if moved.ID == h.ID {
			ctx.Printf("Moved %s to position %d\n", cli.Label(h), i+1)
		}
	}
	return nil
}
