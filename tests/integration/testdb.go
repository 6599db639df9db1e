// Package integration runs the session store and the editing flow against a
// real PostgreSQL started with testcontainers.
package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stockwave/harmony/internal/infrastructure/config"
	"github.com/stockwave/harmony/internal/infrastructure/migration"
	"github.com/stockwave/harmony/internal/infrastructure/persistence"
	"github.com/stockwave/harmony/migrations"
)

// postgresServer is started once per package run and shared by every test
var postgresServer struct {
	sync.Mutex
	container *tcpostgres.PostgresContainer
	cfg       config.DatabaseConfig
}

// TestDB is a connection to the migrated test database
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewTestDB connects to the shared PostgreSQL, starting and migrating it on
// first use. Skipped with -short.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("PostgreSQL integration test skipped in short mode")
	}

	cfg := sharedPostgres(t)
	db, err := persistence.NewDatabase(&cfg)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	return &TestDB{DB: db.DB, t: t}
}

// CleanTables empties the session table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE variation_sessions").Error)
}

func sharedPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	postgresServer.Lock()
	defer postgresServer.Unlock()

	if postgresServer.container != nil {
		return postgresServer.cfg
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("harmony_test"),
		tcpostgres.WithUsername("harmony"),
		tcpostgres.WithPassword("harmony"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            port.Int(),
		User:            "harmony",
		Password:        "harmony",
		DBName:          "harmony_test",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}

	db, err := persistence.NewDatabase(&cfg)
	require.NoError(t, err, "connect for migrations")
	defer func() { _ = db.Close() }()
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "create migrator")
	require.NoError(t, m.Up(), "apply migrations")

	postgresServer.container = container
	postgresServer.cfg = cfg
	return cfg
}

// CleanupSharedContainer terminates the shared container. TestMain calls it.
func CleanupSharedContainer() {
	postgresServer.Lock()
	defer postgresServer.Unlock()

	if postgresServer.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = postgresServer.container.Terminate(ctx)
	postgresServer.container = nil
}
