// Command migrate applies the versioned postgres schema of the munch ledger.
// The migrations are built into the binary; -path points at a directory
// instead.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/config"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/logger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// dbCommand runs against an open migrator
type dbCommand struct {
	usage string
	nargs int
	run   func(m *migration.Migrator, args []string, log *zap.Logger) error
}

// fsCommand only touches the migrations directory
type fsCommand struct {
	usage string
	nargs int
	run   func(dir string, args []string, log *zap.Logger) error
}

var dbCommands = map[string]dbCommand{
	"up":   {usage: "up", run: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() }},
	"down": {usage: "down", run: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() }},
	"steps": {usage: "steps <n>", nargs: 1, run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)
	}},
	"goto": {usage: "goto <version>", nargs: 1, run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.GoTo(uint(v))
	}},
	"version": {usage: "version", run: func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
	"force": {usage: "force <version>", nargs: 1, run: func(m *migration.Migrator, args []string, log *zap.Logger) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		log.Warn("Forcing migration version, the schema is not touched", zap.Int("version", v))
		return m.Force(v)
	}},
}

var fsCommands = map[string]fsCommand{
	"create": {usage: "create <name> [description]", nargs: 1, run: func(dir string, args []string, log *zap.Logger) error {
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		mf, err := migration.CreateMigration(dir, args[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	}},
	"list": {usage: "list", run: func(dir string, _ []string, log *zap.Logger) error {
		names, err := migration.ListMigrations(dir)
		if err != nil {
			return err
		}
		log.Info("Migrations", zap.String("dir", dir), zap.Int("count", len(names)))
		for _, name := range names {
			fmt.Println("  -", name)
		}
		return nil
	}},
}

func main() {
	var migrationsPath, configPath, logLevel string
	flag.StringVar(&migrationsPath, "path", "", "Migrations directory (default: built in; ./migrations for create and list)")
	flag.StringVar(&configPath, "config", "", "TOML config file (default: ./config.toml if present)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(args, migrationsPath, configPath, log); err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(args []string, migrationsPath, configPath string, log *zap.Logger) error {
	name, rest := args[0], args[1:]

	if cmd, ok := fsCommands[name]; ok {
		if len(rest) < cmd.nargs {
			return fmt.Errorf("%w: migrate %s", errUsage, cmd.usage)
		}
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsPath
		}
		return cmd.run(dir, rest, log)
	}

	cmd, ok := dbCommands[name]
	if !ok {
		printUsage()
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	if len(rest) < cmd.nargs {
		return fmt.Errorf("%w: migrate %s", errUsage, cmd.usage)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("versioned migrations need postgres, got %q; use `ledgerctl automigrate` for sqlite", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		return err
	}
	defer m.Close()

	log.Info("Running migration command", zap.String("command", name), zap.String("host", cfg.Database.Host))
	return cmd.run(m, rest, log)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printUsage() {
	fmt.Println(`Munch ledger migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                           Apply all pending migrations
  down                         Roll back all migrations
  steps <n>                    Apply n migrations (positive=up, negative=down)
  goto <version>               Migrate to a specific version
  version                      Show current migration version
  force <version>              Set the recorded version without running anything
  create <name> [description]  Create a new migration file pair
  list                         List migrations in the migrations directory

Flags:
  -path string          Migrations directory (default: built in; ./migrations for create and list)
  -config string        TOML config file (default: ./config.toml if present)
  -log-level string     Log level (default: info)

The database comes from the config file and MUNCH_DATABASE_* variables.`)
}
