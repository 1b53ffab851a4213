package system

import (
	"github.com/julianstephens/habitual/internal/cli"
)

// SweepCmd marks yesterday's unlogged due habits as missed
type SweepCmd struct{}

func (c *SweepCmd) Run(ctx *cli.Context) error {
	n, err := ctx.Tracker.DetectMissedDays(ctx.Ctx(), ctx.UserID)
	if err != nil {
		return err
	}

	if n == 0 {
		ctx.Println("No missed habits for yesterday.")
		return nil
	}
	ctx.Printf("Marked %d habit(s) as missed for yesterday.\n", n)
	return nil
}
