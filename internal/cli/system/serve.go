package system

import (
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Listen address (default from config)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config.Server
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}

	sigCtx, stop := signal.NotifyContext(ctx.Ctx(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(ctx.Tracker, ctx.Views, ctx.Metrics, cfg)
	ctx.Printf("Serving habitual API on %s\n", cfg.Addr)
	return srv.ListenAndServe(sigCtx)
}
