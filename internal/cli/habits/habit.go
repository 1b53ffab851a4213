package habits

import (
	"fmt"
	"text/tabwriter"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/tracker"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits."`
	Edit    HabitEditCmd    `cmd:"" help:"Edit an existing habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit (soft delete, history is kept)."`
	Restore HabitRestoreCmd `cmd:"" help:"Restore a deleted habit."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `short:"D" help:"Optional description."`
	Color       string `short:"c" help:"Display color as #RRGGBB (default: #3B82F6)."`
	Every       string `short:"e" help:"Frequency: daily, weekly or monthly." default:"daily" enum:"daily,weekly,monthly"`
	Days        string `short:"d" help:"Comma-separated weekdays (weekly, e.g. mon,wed,fri) or days of month (monthly, e.g. 1,15)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	freq, err := cli.ParseFrequency(c.Every, c.Days)
	if err != nil {
		return err
	}

	habit, warnings, err := ctx.Tracker.CreateHabit(ctx.Ctx(), ctx.UserID, tracker.HabitInput{
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Frequency:   freq,
	})
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s (%s)\n", habit.Name, cli.FormatFrequency(habit.Frequency))
	for _, w := range warnings {
		ctx.Println(cli.Warn(w))
	}
	return nil
}

type HabitListCmd struct {
	Deleted bool `help:"Include deleted habits."`
	IDs     bool `help:"Show habit ids."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Tracker.Habits(ctx.Ctx(), ctx.UserID, c.Deleted)
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	for _, habit := range habits {
		status := ""
		if !habit.IsActive {
			status = "[DELETED]"
		}
		if c.IDs {
			fmt.Fprintf(tw, "%s\t", habit.ID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", habit.Name, cli.FormatFrequency(habit.Frequency), status)
	}
	return tw.Flush()
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit name or id."`
	Name        *string `help:"New habit name."`
	Description *string `short:"D" help:"New description."`
	Color       *string `short:"c" help:"New display color as #RRGGBB."`
	Every       *string `short:"e" help:"New frequency: daily, weekly or monthly."`
	Days        *string `short:"d" help:"New comma-separated weekdays or days of month."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return fmt.Errorf("failed to find habit: %w", err)
	}

	patch := tracker.HabitPatch{
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
	}
	if c.Every != nil || c.Days != nil {
		every := string(habit.Frequency.Type)
		if c.Every != nil {
			every = *c.Every
		}
		days := ""
		if c.Days != nil {
			days = *c.Days
		}
		freq, err := cli.ParseFrequency(every, days)
		if err != nil {
			return err
		}
		patch.Frequency = &freq
	}

	updated, warnings, err := ctx.Tracker.UpdateHabit(ctx.Ctx(), ctx.UserID, habit.ID, patch)
	if err != nil {
		return err
	}

	ctx.Printf("Updated habit: %s (%s)\n", updated.Name, cli.FormatFrequency(updated.Frequency))
	for _, w := range warnings {
		ctx.Println(cli.Warn(w))
	}
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return fmt.Errorf("failed to find habit: %w", err)
	}
	if err := ctx.Tracker.DeleteHabit(ctx.Ctx(), ctx.UserID, habit.ID); err != nil {
		return err
	}

	ctx.Printf("Deleted habit: %s\n", habit.Name)
	ctx.Printf("To restore, run: habitual habit restore %s\n", habit.ID)
	return nil
}

type HabitRestoreCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitRestoreCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return fmt.Errorf("failed to find habit: %w", err)
	}
	if habit.IsActive {
		return fmt.Errorf("habit %q is not deleted", habit.Name)
	}
	if err := ctx.Tracker.RestoreHabit(ctx.Ctx(), ctx.UserID, habit.ID); err != nil {
		return err
	}

	ctx.Printf("Restored habit: %s\n", habit.Name)
	return nil
}
