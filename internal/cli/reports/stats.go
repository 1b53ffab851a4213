package reports

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
)

type StatsCmd struct {
	Habit string `arg:"" optional:"" help:"Habit name or id (default: all active habits)."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	var habits []models.Habit
	if c.Habit != "" {
		habit, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return fmt.Errorf("failed to find habit: %w", err)
		}
		habits = []models.Habit{habit}
	} else {
		all, err := ctx.Tracker.Habits(ctx.Ctx(), ctx.UserID, false)
		if err != nil {
			return err
		}
		habits = all
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	for i, habit := range habits {
		st, err := ctx.Tracker.Recompute(ctx.Ctx(), habit.ID, ctx.UserID)
		if err != nil {
			return err
		}
		if i > 0 {
			ctx.Println()
		}
		ctx.Printf("%s", cli.RenderStats(habit, st))
	}
	return nil
}

type ReportCmd struct {
	Weeks  int `help:"Number of weeks to summarize." default:"4"`
	Months int `help:"Number of months to summarize." default:"6"`
}

func (c *ReportCmd) Run(ctx *cli.Context) error {
	if c.Weeks < 1 || c.Months < 1 {
		return fmt.Errorf("--weeks and --months must be positive")
	}
	report, err := ctx.Tracker.Stats().Report(ctx.Ctx(), ctx.UserID, c.Weeks, c.Months)
	if err != nil {
		return err
	}

	ctx.Println("Weekly")
	for _, w := range report.Weekly {
		ctx.Printf("  %s  %s\n", w.WeekStart, bar(w.Completed, w.Missed))
	}

	ctx.Println("\nMonthly")
	for _, m := range report.Monthly {
		ctx.Printf("  %s     %s %3d%%\n", m.Month, bar(m.Completed, m.Missed), m.CompletionRate)
	}

	if len(report.Insights) > 0 {
		ctx.Println("\nInsights")
		for _, in := range report.Insights {
			ctx.Println(cli.RenderInsight(in))
		}
	}
	return nil
}

// bar renders completed and missed counts as a fixed-width run of marks
func bar(completed, missed int) string {
	const width = 30
	total := completed + missed
	if total == 0 {
		return strings.Repeat(" ", width) + " 0/0"
	}

	filled, empty := completed, missed
	if total > width {
		filled = completed * width / total
		empty = width - filled
	}
	pad := width - filled - empty
	return strings.Repeat("█", filled) + strings.Repeat("░", empty) + strings.Repeat(" ", pad) +
		fmt.Sprintf(" %d/%d", completed, total)
}
