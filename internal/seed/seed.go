package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/store"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// Defaults is the configuration installed when none is stored yet.
	// The built-in tables are used when it is nil.
	Defaults *mandays.Configuration
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	defaults := mandays.DefaultConfiguration()
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	inserted, err := store.EnsureUser(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, store.RoleAdmin)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, fmt.Errorf("seed admin user: %w", err)
	}
	stats.count(inserted)

	inserted, err = store.EnsureConfig(ctx, tx, defaults)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, fmt.Errorf("seed calculation configuration: %w", err)
	}
	stats.count(inserted)

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func (s *Stats) count(inserted bool) {
	if inserted {
		s.Inserts++
	}
}
