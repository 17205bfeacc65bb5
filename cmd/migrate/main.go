package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/orderdesk/backend/internal/infrastructure/config"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/infrastructure/migration"
	"github.com/orderdesk/backend/migrations"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	driver := cfg.Database.Driver

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("driver", driver),
		zap.String("migrations_path", migrationsPath),
	)

	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsPath
		}
		files, err := migration.CreateMigration(dir, args[1], description, migrations.Drivers)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		for _, mf := range files {
			log.Info("Migration created",
				zap.String("driver", mf.Driver),
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
		}
		return

	case "list":
		names, err := listMigrations(migrationsPath, driver)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(names) == 0 {
			log.Info("No migrations found")
			return
		}
		log.Info("Available migrations", zap.Int("count", len(names)))
		for _, name := range names {
			fmt.Println("  -", name)
		}
		if err := checkParity(migrationsPath); err != nil {
			log.Warn("Driver migrations diverge", zap.Error(err))
		}
		return
	}

	m, err := openMigrator(cfg.Database, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}

	case "goto":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		if err := m.GoTo(uint(version)); err != nil {
			log.Fatal("Migration goto failed", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version - use with caution!")
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	case "drop":
		confirm := false
		for _, arg := range args[1:] {
			if arg == "-confirm" || arg == "--confirm" {
				confirm = true
				break
			}
		}
		if !confirm {
			log.Fatal("Drop cancelled. Use 'migrate drop -confirm' to confirm.")
		}
		if err := m.Drop(); err != nil {
			log.Fatal("Drop failed", zap.Error(err))
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

// databaseURL builds the golang-migrate URL of the configured database.
func databaseURL(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case "postgres":
		return cfg.DSN(), nil
	case "sqlite":
		if cfg.Path == ":memory:" {
			return "", fmt.Errorf("an in-memory sqlite database cannot be migrated from the CLI")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return "", err
		}
		return "sqlite3://" + cfg.Path, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func openMigrator(cfg config.DatabaseConfig, migrationsPath string, log *zap.Logger) (*migration.Migrator, error) {
	dbURL, err := databaseURL(cfg)
	if err != nil {
		return nil, err
	}
	if migrationsPath == "" {
		return migration.NewFromDSN(cfg.Driver, dbURL, log)
	}
	absPath, err := filepath.Abs(filepath.Join(migrationsPath, cfg.Driver))
	if err != nil {
		return nil, err
	}
	return migration.NewFromURL(dbURL, absPath, log)
}

func listMigrations(migrationsPath, driver string) ([]string, error) {
	if migrationsPath != "" {
		return migration.ListMigrations(os.DirFS(filepath.Join(migrationsPath, driver)))
	}
	fsys, err := migrations.For(driver)
	if err != nil {
		return nil, err
	}
	return migration.ListMigrations(fsys)
}

func checkParity(migrationsPath string) error {
	byDriver := make(map[string][]string, len(migrations.Drivers))
	for _, driver := range migrations.Drivers {
		names, err := listMigrations(migrationsPath, driver)
		if err != nil {
			return err
		}
		byDriver[driver] = names
	}
	return migration.CheckParity(byDriver)
}

func printUsage() {
	fmt.Println(`Order Desk Local Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  drop -confirm         Drop all local tables (DANGEROUS)
  create <name> [desc]  Create a migration pair for every driver
  list                  List available migrations for the configured driver

Flags:
  -path string          Read migrations from <path>/<driver> instead of the embedded set
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  ORDERDESK_DATABASE_DRIVER, ORDERDESK_DATABASE_PATH (sqlite)
  ORDERDESK_DATABASE_HOST, ORDERDESK_DATABASE_PORT, ORDERDESK_DATABASE_USER,
  ORDERDESK_DATABASE_PASSWORD, ORDERDESK_DATABASE_DBNAME (postgres)

Examples:
  # Apply all pending migrations
  migrate up

  # Roll back the last migration
  migrate step -1

  # Create a new migration
  migrate create add_ticket_priority "Priority column on support tickets"`)
}
