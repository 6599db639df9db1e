// Package persistence stores variation sessions with GORM on PostgreSQL or SQLite.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stockwave/harmony/internal/infrastructure/config"
	"github.com/stockwave/harmony/internal/infrastructure/persistence/models"
	"github.com/stockwave/harmony/internal/infrastructure/telemetry"
)

// Database is the GORM handle behind the session store
type Database struct {
	DB     *gorm.DB
	driver string
}

// Option configures NewDatabase
type Option func(*databaseOptions)

type databaseOptions struct {
	logger  gormlogger.Interface
	tracing *telemetry.DBTracingPlugin
}

// WithGormLogger replaces the default silent GORM logger
func WithGormLogger(l gormlogger.Interface) Option {
	return func(o *databaseOptions) { o.logger = l }
}

// WithTracing registers otelgorm through p once connected
func WithTracing(p *telemetry.DBTracingPlugin) Option {
	return func(o *databaseOptions) { o.tracing = p }
}

// dialectorFor picks the GORM dialector. Prepared statements are cached on
// PostgreSQL only.
func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, bool, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), false, nil
	case config.DriverPostgres, "":
		return postgres.Open(cfg.DSN()), true, nil
	}
	return nil, false, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func configurePool(sqlDB *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.Driver == config.DriverSQLite {
		// one writer at a time, and every :memory: connection is a separate database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// NewDatabase connects with the configured driver and verifies the connection.
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := databaseOptions{logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	for _, opt := range opts {
		opt(&o)
	}

	dialector, prepare, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            prepare,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	d := &Database{DB: db, driver: cfg.Driver}
	sqlDB, err := d.sqlDB()
	if err != nil {
		return nil, err
	}
	configurePool(sqlDB, cfg)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	if o.tracing != nil {
		if err := o.tracing.Register(db); err != nil {
			return nil, fmt.Errorf("register database tracing: %w", err)
		}
	}
	return d, nil
}

func (d *Database) sqlDB() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// AutoMigrate creates the SQLite schema. PostgreSQL uses the SQL files in
// migrations/ instead.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(&models.VariationSessionModel{})
}

func (d *Database) Driver() string {
	return d.driver
}

func (d *Database) Close() error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping is the database health check
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// OpenConnections reports the pool size, in use plus idle
func (d *Database) OpenConnections() int {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return 0
	}
	return sqlDB.Stats().OpenConnections
}
