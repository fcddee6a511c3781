package main

import (
	"context"
	"errors"

	"github.com/dmc31a42/WargameModInstaller/internal/config"
	"github.com/dmc31a42/WargameModInstaller/internal/store"
	"github.com/dmc31a42/WargameModInstaller/internal/store/postgres"
	"github.com/dmc31a42/WargameModInstaller/internal/store/sqlite"
)

var errNoJournal = errors.New("no install journal configured (set database.dsn or WMI_DATABASE_DSN)")

// openStore opens the journal named by the settings DSN and ensures its
// schema. It returns nil when no DSN is configured.
func openStore(ctx context.Context, settings *config.Settings) (store.Store, error) {
	dsn := settings.Database.DSN
	if dsn == "" {
		return nil, nil
	}
	scheme, err := config.DatabaseScheme(dsn)
	if err != nil {
		return nil, err
	}

	var db store.Store
	switch scheme {
	case "postgres":
		db, err = postgres.New(ctx, dsn)
	default:
		db, err = sqlite.New(ctx, dsn)
	}
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

func requireStore(ctx context.Context, settings *config.Settings) (store.Store, error) {
	db, err := openStore(ctx, settings)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errNoJournal
	}
	return db, nil
}
