package habits

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/schedule"
)

type DoneCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *DoneCmd) Run(ctx *cli.Context) error {
	return mark(ctx, c.Habit, constants.StatusCompleted)
}

type MissCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *MissCmd) Run(ctx *cli.Context) error {
	return mark(ctx, c.Habit, constants.StatusMissed)
}

func mark(ctx *cli.Context, ref string, status constants.LogStatus) error {
	day, err := ctx.Day()
	if err != nil {
		return err
	}
	habit, err := ctx.FindHabit(ref)
	if err != nil {
		return fmt.Errorf("failed to find habit: %w", err)
	}

	if _, err := ctx.Tracker.SetStatus(ctx.Ctx(), habit.ID, ctx.UserID, day, status); err != nil {
		return err
	}
	st, err := ctx.Store.GetStats(ctx.Ctx(), ctx.UserID, habit.ID)
	if err != nil {
		return err
	}

	ctx.Printf("%s %s %s for %s (streak %d)\n", cli.StatusMark(status), habit.Name, status, day, st.CurrentStreak)
	if !schedule.IsDueOn(habit, day) {
		ctx.Println(cli.Warn(fmt.Sprintf("%s is not scheduled on %s (%s)", habit.Name, day, cli.FormatFrequency(habit.Frequency))))
	}
	return nil
}

type UndoCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *UndoCmd) Run(ctx *cli.Context) error {
	day, err := ctx.Day()
	if err != nil {
		return err
	}
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return fmt.Errorf("failed to find habit: %w", err)
	}

	if err := ctx.Tracker.Undo(ctx.Ctx(), habit.ID, ctx.UserID, day); err != nil {
		return err
	}

	ctx.Printf("Cleared %s for %s\n", habit.Name, day)
	return nil
}
