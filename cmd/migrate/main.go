package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/infrastructure/config"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/infrastructure/migration"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		path     string
		logLevel string
	)
	flag.StringVar(&path, "path", "", "path to the migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
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
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	path = resolveMigrationsPath(path)
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Fatal("resolving migrations path", zap.Error(err))
	}
	path = abs

	log.Info("migrate",
		zap.String("command", command),
		zap.String("migrations_path", path),
	)

	// create and list work on the directory alone, no database needed
	switch command {
	case "create":
		runCreate(log, path, args[1:])
		return
	case "list":
		runList(log, path)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("loading configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("opening database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("pinging database", zap.Error(err))
	}

	m, err := migration.New(db, path, log)
	if err != nil {
		log.Fatal("creating migrator", zap.Error(err))
	}
	defer m.Close()

	if err := dispatch(m, log, command, args[1:]); err != nil {
		log.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
}

// resolveMigrationsPath falls back to ./migrations, then to the directory
// two levels above the binary (the repo root when run from bin/).
func resolveMigrationsPath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		return defaultMigrationsPath
	}
	if exec, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exec), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsPath
}

func runCreate(log *zap.Logger, path string, args []string) {
	if len(args) < 1 {
		log.Fatal("migration name required: migrate create <name> [description]")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(path, args[0], description)
	if err != nil {
		log.Fatal("creating migration files", zap.Error(err))
	}
	log.Info("migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
}

func runList(log *zap.Logger, path string) {
	migrations, err := migration.ListMigrations(path)
	if err != nil {
		log.Fatal("listing migrations", zap.Error(err))
	}
	if len(migrations) == 0 {
		log.Info("no migrations found")
		return
	}
	log.Info("available migrations", zap.Int("count", len(migrations)))
	for _, m := range migrations {
		fmt.Println("  -", m)
	}
}

func dispatch(m *migration.Migrator, log *zap.Logger, command string, args []string) error {
	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		if len(args) < 1 {
			return fmt.Errorf("step count required: migrate step <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)

	case "goto":
		if len(args) < 1 {
			return fmt.Errorf("version required: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.GoTo(uint(version))

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("no migrations applied")
		} else {
			log.Info("current schema version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}
		return nil

	case "force":
		if len(args) < 1 {
			return fmt.Errorf("version required: migrate force <version>")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(version)

	case "drop":
		if !hasConfirmFlag(args) {
			return fmt.Errorf("drop destroys all data; rerun as 'migrate drop -confirm'")
		}
		return m.Drop()

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func hasConfirmFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-confirm" || arg == "--confirm" {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Println(`Fulfillment Backend Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show current schema version
  force <version>       Stamp the schema version without running SQL
  drop -confirm         Drop all database objects (destroys data)
  create <name> [desc]  Create a new up/down migration pair
  list                  List available migrations

Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  WMS_DATABASE_HOST, WMS_DATABASE_PORT, WMS_DATABASE_USER,
  WMS_DATABASE_PASSWORD, WMS_DATABASE_DBNAME, WMS_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_stock_units_table "Create stock units table"
  migrate version`)
}
