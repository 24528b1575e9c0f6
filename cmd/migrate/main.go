package main

import (
	"embed"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/egresswatch/egresswatch/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "EGRESSWATCH_DB_DSN"

func main() {
	var (
		dsn     = flag.String("dsn", "", "Database connection string (default: service configuration)")
		up      = flag.Bool("up", false, "Apply all pending migrations")
		down    = flag.Bool("down", false, "Revert all migrations")
		steps   = flag.Int("steps", 0, "Apply N migrations (negative reverts)")
		version = flag.Bool("version", false, "Print the current schema version")
		force   = flag.Int("force", -1, "Force the schema version without running migrations")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	target, err := resolveDSN(*dsn)
	if err != nil {
		log.Fatalf("resolve database target: %v", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("load embedded migrations: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, target)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("read schema version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatalf("force schema version: %v", err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("apply migrations: %v", err)
		}
		fmt.Println("migrations applied")
	case *down:
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("revert migrations: %v", err)
		}
		fmt.Println("migrations reverted")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("apply migration steps: %v", err)
		}
		fmt.Printf("applied %d migration steps\n", *steps)
	default:
		fmt.Println("usage: migrate [-dsn <connection-string>] -up|-down|-steps N|-version|-force N")
		flag.PrintDefaults()
	}
}

// resolveDSN picks the migration target: the -dsn flag, then the
// EGRESSWATCH_DB_DSN environment variable, then the connection settings
// the service itself runs with (config.toml plus EGRESSWATCH_DB_* vars).
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	if env := os.Getenv(envDSN); env != "" {
		return env, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("no -dsn flag or %s set, and service config unusable: %w", envDSN, err)
	}
	return cfg.Database.Dsn(), nil
}
