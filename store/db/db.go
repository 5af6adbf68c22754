// Package db selects the store driver from the profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/amicoach/amicoach/internal/profile"
	"github.com/amicoach/amicoach/store"
	"github.com/amicoach/amicoach/store/db/postgres"
	"github.com/amicoach/amicoach/store/db/sqlite"
)

// NewDBDriver creates a new db driver based on the profile.
// SQLite covers development and small single-user deployments; PostgreSQL is
// the production driver.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
