// Package store persists users, the calculation configuration and calculation records
// in SQLite.
package store

import "database/sql"

// Store groups the repositories that share one database handle.
type Store struct {
	Calculations *CalculationStore
	Configs      *ConfigStore
	Users        *UserStore
}

// New returns the repositories backed by db.
func New(db *sql.DB) *Store {
	return &Store{
		Calculations: NewCalculationStore(db),
		Configs:      NewConfigStore(db),
		Users:        NewUserStore(db),
	}
}
