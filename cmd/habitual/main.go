package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/backups"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/reports"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" default:"~/.config/habitual/config.toml"`
	Debug   bool   `help:"Log at debug level and mirror logs to stderr."`
	User    string `help:"User id to act as (default from config)."`
	Date    string `help:"Date in YYYY-MM-DD format (default: today)."`

	Init    system.InitCmd    `cmd:"" help:"Initialize habitual storage and write a default config."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Habit   habits.HabitCmd   `cmd:"" help:"Manage habits."`
	Done    habits.DoneCmd    `cmd:"" help:"Mark a habit as completed."`
	Miss    habits.MissCmd    `cmd:"" help:"Mark a habit as missed."`
	Undo    habits.UndoCmd    `cmd:"" help:"Clear a habit's log for the day."`
	Today   reports.TodayCmd  `cmd:"" help:"Show the habits due today." default:"1"`
	Watch   reports.WatchCmd  `cmd:"" help:"Open a live board of today's habits."`
	Stats   reports.StatsCmd  `cmd:"" help:"Show habit statistics."`
	Report  reports.ReportCmd `cmd:"" help:"Show weekly and monthly analytics with insights."`
	Sweep   system.SweepCmd   `cmd:"" help:"Mark yesterday's unlogged habits as missed."`
	Reset   system.ResetCmd   `cmd:"" help:"Delete all habit data."`
	Serve   system.ServeCmd   `cmd:"" help:"Serve the JSON API."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks, statistics and a JSON API"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
	command := ctx.Command()

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if CLI.User != "" {
		cfg.UserID = CLI.User
	}

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: cfg.Dir,
		Stderr:    command == "serve",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	// Keyring commands manage the credentials the store would need, so they run without one
	var store storage.Provider
	if !strings.HasPrefix(command, "keyring") {
		store, err = cli.OpenStore(cfg)
		if err != nil {
			errors.Fatal(err)
		}
	}

	appCtx := cli.NewContext(context.Background(), cfg, store)
	appCtx.ConfigPath = CLI.Config
	appCtx.Date = CLI.Date

	// Load the store before running the command (init and migrate handle their own loading)
	if store != nil && command != "init" && !strings.HasPrefix(command, "migrate") {
		if err := store.Load(appCtx.Ctx()); err != nil {
			errors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	if store != nil {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("Failed to close store", "error", closeErr)
		}
	}
	errors.Fatal(err)
}
