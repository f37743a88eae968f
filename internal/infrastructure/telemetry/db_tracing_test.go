package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func tracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedModel{}))
	return db
}

// recordingProvider installs a span recorder as the global tracer
// provider for the duration of the test.
func recordingProvider(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := tracedDB(t)

	cfg := DefaultDBTracingConfig()
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))

	// Queries keep working with no plugin registered.
	require.NoError(t, db.Create(&tracedModel{Name: "widget"}).Error)
}

func TestRegisterDBTracing_RecordsSpans(t *testing.T) {
	db := tracedDB(t)
	recorder := recordingProvider(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedModel{Name: "widget"}).Error)

	var loaded tracedModel
	require.NoError(t, db.WithContext(context.Background()).First(&loaded, "name = ?", "widget").Error)
	assert.Equal(t, "widget", loaded.Name)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
}
