package postgres

import (
	"context"
	"database/sql"
	"embed"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/amicoach/amicoach/internal/profile"
	"github.com/amicoach/amicoach/store"
)

// PostgreSQL is the reference implementation for production deployments.

//go:embed migration/LATEST.sql
var migrationFS embed.FS

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection specified by its profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// Conservative pool sizing for a small self-hosted deployment.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate applies the latest schema. All statements use IF NOT EXISTS, so
// running it on an initialized database is a no-op.
func (d *DB) Migrate(ctx context.Context) error {
	buf, err := migrationFS.ReadFile("migration/LATEST.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read latest schema")
	}
	if _, err := d.db.ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}
	return nil
}
