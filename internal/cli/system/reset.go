package system

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/cli"
)

type ResetCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ResetCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Delete all habits, logs and statistics?").
					Description("This cannot be undone.").
					Affirmative("Delete everything").
					Negative("Cancel").
					Value(&confirmed),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive form error: %w", err)
		}
		if !confirmed {
			ctx.Println("Reset cancelled.")
			return nil
		}
	}

	if ctx.IsSQLite() {
		mgr := backup.NewManager(ctx.Store.GetConfigPath(), backup.WithClock(ctx.Clock))
		path, err := mgr.Create()
		if err != nil {
			return fmt.Errorf("backup before reset failed: %w", err)
		}
		ctx.Printf("✓ Backup created: %s\n", path)
	}

	if err := ctx.Tracker.ResetAll(ctx.Ctx(), ctx.UserID); err != nil {
		return err
	}
	ctx.Println("All habit data deleted.")
	return nil
}
