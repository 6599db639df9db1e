package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testModel{}))
	return db
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.Equal(t, "postgresql", p.config.DBSystem)
	assert.NotNil(t, p.logger)
}

func TestDBTracingPlugin_Register(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		db := setupTestDB(t)
		p := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zap.NewNop())
		assert.NoError(t, p.Register(db))
	})

	t.Run("enabled registers otelgorm and callbacks", func(t *testing.T) {
		setupTestTracer(t)
		db := setupTestDB(t)
		p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
		require.NoError(t, p.Register(db))

		require.NoError(t, db.Create(&testModel{Name: "x"}).Error)
	})
}

func TestDBTracingPlugin_After(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 100 * time.Millisecond}, zap.NewNop())
	db := setupTestDB(t)

	ctx, span := tp.Tracer("test").Start(context.Background(), "lookup")
	ctx = context.WithValue(ctx, queryStartKey{}, time.Now().Add(-time.Second))

	var m testModel
	tx := db.WithContext(ctx).First(&m, 99999)
	require.ErrorIs(t, tx.Error, gorm.ErrRecordNotFound)

	p.after(tx)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := attrMap(spans[0].Attributes())
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.Equal(t, "test_models", attrs["db.sql.table"].AsString())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code, "record not found is not a span error")
}
