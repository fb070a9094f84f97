// Package db selects the database driver for the configured profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/ayaka-io/animatch/internal/profile"
	"github.com/ayaka-io/animatch/store"
	"github.com/ayaka-io/animatch/store/db/postgres"
	"github.com/ayaka-io/animatch/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "postgres":
		return postgres.NewDB(profile)
	case "sqlite":
		return sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported driver: %s", profile.Driver)
	}
}
