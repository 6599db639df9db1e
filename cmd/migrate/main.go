// Command migrate manages the PostgreSQL schema of the variation session store.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/infrastructure/config"
	"github.com/stockwave/harmony/internal/infrastructure/logger"
	"github.com/stockwave/harmony/internal/infrastructure/migration"
	"github.com/stockwave/harmony/migrations"
)

const defaultMigrationsDir = "migrations"

// command is one migrate subcommand. Commands with a nil run only touch files.
type command struct {
	usage   string
	summary string
	minArgs int
	run     func(m *migration.Migrator, args []string, log *zap.Logger) error
}

var commands = map[string]command{
	"up": {usage: "up", summary: "Apply all pending migrations",
		run: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() }},
	"down": {usage: "down", summary: "Roll back every migration",
		run: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() }},
	"step": {usage: "step <n>", summary: "Apply n migrations, negative n rolls back", minArgs: 1,
		run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		}},
	"goto": {usage: "goto <version>", summary: "Migrate up or down to a version", minArgs: 1,
		run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(v))
		}},
	"version": {usage: "version", summary: "Show the applied version",
		run: func(m *migration.Migrator, _ []string, log *zap.Logger) error {
			v, dirty, err := m.Version()
			if err == nil {
				log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
			}
			return err
		}},
	"force": {usage: "force <version>", summary: "Record a version without running it (clears dirty)", minArgs: 1,
		run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(v)
		}},
	"create": {usage: "create <name> [desc]", summary: "Write the next numbered up/down pair", minArgs: 1},
	"list":   {usage: "list", summary: "List the available migrations"},
}

var commandOrder = []string{"up", "down", "step", "goto", "version", "force", "create", "list"}

func main() {
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	name, args := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *logLevel, Format: "console", Output: "stdout", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if len(args) < cmd.minArgs {
		log.Fatal("Missing argument", zap.String("usage", "migrate "+cmd.usage))
	}

	switch name {
	case "create":
		target := *dir
		if target == "" {
			target = defaultMigrationsDir
		}
		desc := strings.Join(args[1:], " ")
		mf, err := migration.CreateMigration(target, args[0], desc)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return
	case "list":
		var src fs.FS = migrations.FS
		if *dir != "" {
			src = os.DirFS(*dir)
		}
		list, err := migration.ListMigrations(src)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, m := range list {
			fmt.Println("  -", m.BaseName())
		}
		return
	}

	m, closeAll := openMigrator(*dir, log)
	defer closeAll()
	if err := cmd.run(m, args, log); err != nil {
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

// openMigrator connects with the configured PostgreSQL settings
func openMigrator(dir string, log *zap.Logger) (*migration.Migrator, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatal("SQL migrations apply to PostgreSQL only; the server creates the SQLite schema itself",
			zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Database unreachable", zap.String("host", cfg.Database.Host), zap.Error(err))
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.NewFromDir(db, dir, log)
	} else {
		m, err = migration.New(db, migrations.FS, log)
	}
	if err != nil {
		_ = db.Close()
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	return m, func() {
		if err := m.Close(); err != nil {
			log.Warn("Closing migrator", zap.Error(err))
		}
		_ = db.Close()
	}
}

func printUsage() {
	var b strings.Builder
	b.WriteString("Harmony schema migrations\n\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:\n")
	for _, name := range commandOrder {
		c := commands[name]
		fmt.Fprintf(&b, "  %-22s %s\n", c.usage, c.summary)
	}
	b.WriteString("\nFlags:\n")
	fmt.Fprint(os.Stderr, b.String())
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "\nDatabase settings come from config.toml and HARMONY_DATABASE_* variables.")
}
