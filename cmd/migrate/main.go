package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/expensetracker/backend/internal/infrastructure/config"
	"github.com/expensetracker/backend/internal/infrastructure/logger"
	"github.com/expensetracker/backend/internal/infrastructure/migration"
	"github.com/expensetracker/backend/internal/infrastructure/persistence"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/tenant"
	"github.com/expensetracker/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrationsPath string
	logLevel       string

	log *zap.Logger
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Expense tracker database migration tool",
	Long: `Applies control-plane migrations (principals, tenants) with golang-migrate
and per-tenant finance migrations through the tenant provisioner.

Scripts are embedded in the binary. Pass --path to read control scripts
from a directory instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logger.New(&logger.Config{
			Level:      logLevel,
			Format:     "console",
			Output:     "stdout",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if cmd.Annotations["offline"] == "true" {
			return nil
		}
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending control-plane migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			return m.Up()
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all control-plane migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			return m.Down()
		})
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps <n>",
	Short: "Apply n migrations (positive = up, negative = down)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error {
			return m.Steps(n)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current control-plane version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				log.Info("No migrations applied")
				return nil
			}
			log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
			return nil
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Force the recorded version without running scripts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error {
			return m.Force(version)
		})
	},
}

var createTenant bool

var createCmd = &cobra.Command{
	Use:         "create <name>",
	Short:       "Create an empty up/down script pair",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{"offline": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := scriptDir(createTenant)
		sf, err := migration.CreateScript(dir, args[0])
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.Uint("version", sf.Version),
			zap.String("up_file", sf.UpPath),
			zap.String("down_file", sf.DownPath),
		)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:         "list",
	Short:       "List control-plane and tenant scripts",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"offline": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, set := range []struct {
			name string
			fsys fs.FS
		}{
			{"control", controlSource()},
			{"tenant", migrations.Tenant()},
		} {
			scripts, err := migration.ListScripts(set.fsys)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%d)\n", set.name, len(scripts))
			for _, s := range scripts {
				fmt.Println("  -", s)
			}
		}
		return nil
	},
}

var tenantMigrateCmd = &cobra.Command{
	Use:   "tenant-migrate <schema>...",
	Short: "Create tenant schemas when absent and apply pending tenant scripts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := persistence.NewDatabase(&cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()

		provisioner, err := tenant.NewProvisioner(db.DB, migrations.Tenant(), cfg.Isolation.MigrationsTable, nil, log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		for _, schema := range args {
			if err := tenant.ValidateSchemaName(schema); err != nil {
				return fmt.Errorf("%s: %w", schema, err)
			}
			if err := provisioner.CreateSchemaIfAbsent(ctx, schema); err != nil {
				return err
			}
			applied, err := provisioner.Migrate(ctx, schema)
			if err != nil {
				return err
			}
			log.Info("Tenant migrated", zap.String("schema", schema), zap.Int("applied", applied))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "Directory with control-plane scripts (default: embedded)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	createCmd.Flags().BoolVar(&createTenant, "tenant", false, "Create a tenant script instead of a control-plane one")

	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, versionCmd, forceCmd, createCmd, listCmd, tenantMigrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func controlSource() fs.FS {
	if migrationsPath != "" {
		return os.DirFS(migrationsPath)
	}
	return migrations.Control()
}

func scriptDir(forTenant bool) string {
	base := migrationsPath
	if base == "" {
		base = filepath.Join("migrations", "control")
	}
	if forTenant {
		return filepath.Join(filepath.Dir(base), "tenant")
	}
	return base
}

func withMigrator(fn func(m *migration.Migrator) error) error {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var m *migration.Migrator
	if migrationsPath != "" {
		m, err = migration.NewFromPath(db, migrationsPath, log)
	} else {
		m, err = migration.New(db, controlSource(), log)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return fn(m)
}
