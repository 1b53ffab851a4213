package system

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/migration"
)

// migrator is implemented by the SQL backends
type migrator interface {
	Migrate() (int, error)
	MigrationStatus() (migration.Status, error)
}

type MigrateCmd struct {
	Status bool `help:"Only report the schema version and pending migrations."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("migrate command only supports SQLite and PostgreSQL storage")
	}

	if c.Status {
		// Load reports a stale or too new schema as an error
		if err := ctx.Store.Load(ctx.Ctx()); err != nil {
			return err
		}
		st, err := m.MigrationStatus()
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		ctx.Printf("Schema version %d (latest %d), no pending migrations.\n", st.Current, st.Latest)
		return nil
	}

	if backupPath := ctx.PerformAutomaticBackup(); backupPath != "" {
		ctx.Printf("Backed up database to: %s\n", backupPath)
	}

	// Init opens the database and applies pending migrations
	if err := ctx.Store.Init(ctx.Ctx()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	st, err := m.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	ctx.Printf("Database is up to date (schema version %d).\n", st.Current)
	return nil
}
