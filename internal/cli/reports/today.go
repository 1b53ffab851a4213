package reports

import (
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/tui"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.Day()
	if err != nil {
		return err
	}
	views, err := ctx.Views.Today(ctx.Ctx(), ctx.UserID, day)
	if err != nil {
		return err
	}

	ctx.Printf("%s", cli.RenderDailyView(day, views))
	return nil
}

// WatchCmd keeps the day's habits on screen, re-rendering whenever a log for that day changes
type WatchCmd struct {
	Plain bool `help:"Redraw the plain text view instead of the interactive board."`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	day, err := ctx.Day()
	if err != nil {
		return err
	}

	watchCtx, stop := signal.NotifyContext(ctx.Ctx(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !c.Plain {
		return tui.Run(watchCtx, ctx.Tracker, ctx.Views, ctx.UserID, day)
	}

	updates, unsubscribe, err := tui.Subscribe(watchCtx, ctx.Views, ctx.UserID, day)
	if err != nil {
		return err
	}
	defer unsubscribe()

	for {
		select {
		case <-watchCtx.Done():
			return nil
		case views := <-updates:
			ctx.Printf("\033[H\033[2J%s", cli.RenderDailyView(day, views))
		}
	}
}
