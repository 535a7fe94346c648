package tenant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// PostgreSQL error codes raised by a concurrent CREATE SCHEMA
const (
	pgDuplicateSchema = "42P06"
	pgUniqueViolation = "23505"
)

// ErrMigrationFailed wraps the failure of a single tenant script
var ErrMigrationFailed = errors.New("tenant: migration failed")

// Script is one versioned tenant migration
type Script struct {
	Version uint
	Name    string
	Body    string
}

// Provisioner creates tenant schemas and brings them up to the latest script.
// Migrations of one schema never overlap: callers in this process share one
// run per schema, and a PostgreSQL advisory lock serializes processes.
type Provisioner struct {
	db          *gorm.DB
	scripts     []Script
	ledgerTable string
	cache       ProvisionedCache
	flight      singleflight.Group
	logger      *zap.Logger
}

// NewProvisioner loads the scripts in source (golang-migrate naming,
// e.g. 000001_init.up.sql) and returns a provisioner recording applied
// versions in ledgerTable inside each schema. cache may be nil.
func NewProvisioner(db *gorm.DB, source fs.FS, ledgerTable string, cache ProvisionedCache, logger *zap.Logger) (*Provisioner, error) {
	if err := ValidateSchemaName(ledgerTable); err != nil {
		return nil, fmt.Errorf("tenant: ledger table: %w", err)
	}
	scripts, err := LoadScripts(source)
	if err != nil {
		return nil, err
	}
	return &Provisioner{
		db:          db,
		scripts:     scripts,
		ledgerTable: ledgerTable,
		cache:       cache,
		logger:      logger.Named("provisioner"),
	}, nil
}

// LoadScripts reads the up scripts of source in ascending version order.
func LoadScripts(source fs.FS) ([]Script, error) {
	drv, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("tenant: open scripts: %w", err)
	}
	defer drv.Close()

	var scripts []Script
	version, err := drv.First()
	for err == nil {
		r, name, rerr := drv.ReadUp(version)
		switch {
		case rerr == nil:
			body, readErr := io.ReadAll(r)
			r.Close()
			if readErr != nil {
				return nil, fmt.Errorf("tenant: read script %d: %w", version, readErr)
			}
			scripts = append(scripts, Script{Version: version, Name: name, Body: string(body)})
		case !errors.Is(rerr, fs.ErrNotExist):
			return nil, fmt.Errorf("tenant: read script %d: %w", version, rerr)
		}
		version, err = drv.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("tenant: list scripts: %w", err)
	}
	return scripts, nil
}

// LatestVersion returns the highest script version, or 0 without scripts.
func (p *Provisioner) LatestVersion() uint {
	if len(p.scripts) == 0 {
		return 0
	}
	return p.scripts[len(p.scripts)-1].Version
}

// CreateSchemaIfAbsent creates schema unless it exists. Losing a creation race
// against another session counts as success.
func (p *Provisioner) CreateSchemaIfAbsent(ctx context.Context, schema string) error {
	if err := ValidateSchemaName(schema); err != nil {
		return err
	}
	err := p.db.WithContext(ctx).Exec("CREATE SCHEMA IF NOT EXISTS " + quoteIdent(schema)).Error
	if isDuplicateSchema(err) {
		p.logger.Debug("Schema created concurrently", zap.String("schema", schema))
		return nil
	}
	if err != nil {
		return fmt.Errorf("tenant: create schema %s: %w", schema, err)
	}
	return nil
}

func isDuplicateSchema(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgDuplicateSchema || pgErr.Code == pgUniqueViolation
}

// Migrate applies every script of schema not yet in its ledger, in ascending
// version order, and returns how many it applied. Each script commits together
// with its ledger row, so a failure leaves the schema at the last recorded
// version and a retry resumes from there.
//
// Concurrent calls for one schema share a single run, which is detached from
// the cancellation of whichever caller started it.
func (p *Provisioner) Migrate(ctx context.Context, schema string) (int, error) {
	if err := ValidateSchemaName(schema); err != nil {
		return 0, err
	}
	v, err, _ := p.flight.Do(schema, func() (any, error) {
		return p.migrate(context.WithoutCancel(ctx), schema)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (p *Provisioner) migrate(ctx context.Context, schema string) (int, error) {
	ledger := quoteIdent(schema) + "." + quoteIdent(p.ledgerTable)
	applied := 0

	err := p.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		conn = conn.Session(&gorm.Session{NewDB: true})

		if err := conn.Exec("SELECT pg_advisory_lock(hashtext(?))", schema).Error; err != nil {
			return fmt.Errorf("tenant: lock %s: %w", schema, err)
		}
		defer func() {
			if err := conn.Exec("SELECT pg_advisory_unlock(hashtext(?))", schema).Error; err != nil {
				p.logger.Warn("Failed to release migration lock", zap.String("schema", schema), zap.Error(err))
			}
		}()

		if err := conn.Exec("CREATE TABLE IF NOT EXISTS " + ledger +
			" (version BIGINT PRIMARY KEY, name TEXT NOT NULL, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())").Error; err != nil {
			return fmt.Errorf("tenant: create ledger in %s: %w", schema, err)
		}

		var versions []int64
		if err := conn.Raw("SELECT version FROM " + ledger).Scan(&versions).Error; err != nil {
			return fmt.Errorf("tenant: read ledger of %s: %w", schema, err)
		}
		done := make(map[uint]bool, len(versions))
		for _, v := range versions {
			done[uint(v)] = true
		}

		for _, s := range p.scripts {
			if done[s.Version] {
				continue
			}
			if err := p.apply(conn, schema, ledger, s); err != nil {
				return err
			}
			applied++
			p.logger.Info("Applied tenant migration",
				zap.String("schema", schema),
				zap.Uint("version", s.Version),
				zap.String("name", s.Name),
			)
		}
		return nil
	})
	return applied, err
}

func (p *Provisioner) apply(conn *gorm.DB, schema, ledger string, s Script) error {
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET LOCAL search_path TO " + quoteIdent(schema)).Error; err != nil {
			return err
		}
		if body := strings.TrimSpace(s.Body); body != "" {
			if err := tx.Exec(body).Error; err != nil {
				return err
			}
		}
		return tx.Exec("INSERT INTO "+ledger+" (version, name) VALUES (?, ?)", s.Version, s.Name).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %s version %d (%s): %w", ErrMigrationFailed, schema, s.Version, s.Name, err)
	}
	return nil
}

// Provision makes schema ready for use: it creates it when absent and applies
// pending scripts. It is idempotent and safe to call on every login.
func (p *Provisioner) Provision(ctx context.Context, schema string) error {
	latest := p.LatestVersion()
	if p.cache != nil {
		ok, err := p.cache.IsProvisioned(ctx, schema, latest)
		if err != nil {
			p.logger.Warn("Provisioned cache unavailable", zap.Error(err))
		} else if ok {
			return nil
		}
	}

	if err := p.CreateSchemaIfAbsent(ctx, schema); err != nil {
		return err
	}
	if _, err := p.Migrate(ctx, schema); err != nil {
		return err
	}

	if p.cache != nil {
		if err := p.cache.MarkProvisioned(ctx, schema, latest); err != nil {
			p.logger.Warn("Failed to mark schema provisioned", zap.String("schema", schema), zap.Error(err))
		}
	}
	return nil
}
