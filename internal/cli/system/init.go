package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting an existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	path := config.ExpandPath(ctx.ConfigPath)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Init(path, ctx.Config); err != nil {
			return err
		}
		ctx.Printf("Wrote config file: %s\n", path)
	}

	// If force flag is provided, delete existing database
	if c.Force && ctx.IsSQLite() {
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if backupPath := ctx.PerformAutomaticBackup(); backupPath != "" {
				ctx.Printf("Backed up existing database to: %s\n", backupPath)
			}
			// Database exists, close it first to prevent file locking issues
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(ctx.Ctx()); err != nil {
		return err
	}
	ctx.Printf("Initialized habitual storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
