// Command migrate manages the Postgres schema of the tracker.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/pvptracker/internal/config"
	"github.com/example/pvptracker/internal/logging"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, version, force")
		steps   = flag.Int("steps", 0, "Number of migration steps (for up/down)")
		version = flag.Uint("version", 0, "Target version (for force command)")
		dir     = flag.String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")
	)
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		fatal("config error", err)
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	slog.SetDefault(logging.Setup("pvptracker-migrate", "text", level, os.Stderr))

	if cfg.DBAdapter != "postgres" {
		fatal("migrations only work with postgres", fmt.Errorf("DB_ADAPTER=%s", cfg.DBAdapter))
	}
	dsn, err := cfg.BuildPostgresDSN()
	if err != nil {
		fatal("postgres config error", err)
	}

	migrationsDir := cfg.MigrationsDir
	if *dir != "" {
		migrationsDir = *dir
	}

	m, closeDB, err := newMigrator(migrationsDir, dsn)
	if err != nil {
		fatal("open migrator", err)
	}
	defer closeDB()

	switch *command {
	case "up":
		if err := run(m, true, *steps); err != nil {
			fatal("migration up failed", err)
		}
		slog.Info("migrations applied")
	case "down":
		if err := run(m, false, *steps); err != nil {
			fatal("migration down failed", err)
		}
		slog.Info("migrations rolled back")
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			v, err = 0, nil
		}
		if err != nil {
			fatal("read version", err)
		}
		if dirty {
			slog.Error("database is in a dirty state", "version", v)
			os.Exit(1)
		}
		fmt.Printf("Current migration version: %d\n", v)
	case "force":
		if *version == 0 {
			fatal("force needs a target", errors.New("use -version"))
		}
		if err := m.Force(int(*version)); err != nil {
			fatal("force migration failed", err)
		}
		slog.Info("forced version", "version", *version)
	default:
		fatal("unknown command", fmt.Errorf("%s (supported: up, down, version, force)", *command))
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func newMigrator(migrationsDir, dsn string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database ping failed: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("creating migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, func() { db.Close() }, nil
}

// run moves the schema by steps in the given direction. Zero steps means
// all the way.
func run(m *migrate.Migrate, up bool, steps int) error {
	var err error
	switch {
	case steps > 0 && up:
		err = m.Steps(steps)
	case steps > 0:
		err = m.Steps(-steps)
	case up:
		err = m.Up()
	default:
		err = m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
