package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Open connects to sqlite or postgres, pings, and migrates the blob table.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		sqldb *sql.DB
		err   error
		bunDB *bun.DB
	)

	switch driver {
	case "sqlite":
		sqldb, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		// sqlite serializes writers; one connection also keeps :memory: databases alive
		sqldb.SetMaxOpenConns(1)
		bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	case "postgres":
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	store := &DB{Bun: bunDB}
	if err := store.Migrate(ctx); err != nil {
		bunDB.Close()
		return nil, err
	}
	return store, nil
}

func (d *DB) Close() error {
	return d.Bun.Close()
}
