package migrate

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/uncommithq/uncommit/backend/migrations"
)

func Up(ctx context.Context, pool *pgxpool.Pool) error {
	m, cleanup, err := newMigrator(pool)
	if err != nil {
		return err
	}
	defer cleanup()

	// migrate.Up() is not context-aware; we still accept ctx for future evolutions.
	_ = ctx

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func Down(ctx context.Context, pool *pgxpool.Pool) error {
	m, cleanup, err := newMigrator(pool)
	if err != nil {
		return err
	}
	defer cleanup()

	_ = ctx

	if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func Version(ctx context.Context, pool *pgxpool.Pool) (uint, bool, error) {
	m, cleanup, err := newMigrator(pool)
	if err != nil {
		return 0, false, err
	}
	defer cleanup()

	_ = ctx

	v, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		return 0, false, nil
	}
	return v, dirty, err
}

func newMigrator(pool *pgxpool.Pool) (*migrate.Migrate, func(), error) {
	if pool == nil {
		return nil, nil, fmt.Errorf("db pool is nil")
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)

	drv, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("create postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}

	cleanup := func() {
		_, _ = m.Close()
		_ = sqlDB.Close()
	}
	return m, cleanup, nil
}
