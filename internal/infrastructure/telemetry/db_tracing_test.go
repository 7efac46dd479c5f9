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

// TestModel is a simple model for testing database operations
type TestModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100"`
	CreatedAt time.Time
}

// setupTestDB creates a new SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&TestModel{})
	require.NoError(t, err)

	return db
}

// setupTracerWithExporter creates a tracer provider with a span recorder for testing
func setupTracerWithExporter(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	spanRecorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, spanRecorder
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL, "query variables should stay out of spans by default")
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestNewDBTracingPlugin(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true

	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	require.NotNil(t, plugin)
	assert.Equal(t, cfg, plugin.config)
}

func TestNewDBTracingPlugin_NilLogger(t *testing.T) {
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), nil)

	require.NotNil(t, plugin)
	assert.NotNil(t, plugin.logger)
}

func TestDBTracingPlugin_RegisterOtelGorm_Disabled(t *testing.T) {
	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = false

	plugin := NewDBTracingPlugin(cfg, zap.NewNop())
	err := plugin.RegisterOtelGorm(db)

	assert.NoError(t, err)
	assert.Nil(t, db.Callback().Query().Get("otel_span:after_query"),
		"no callbacks should be registered when tracing is disabled")
}

func TestDBTracingPlugin_RegisterOtelGorm_Enabled(t *testing.T) {
	db := setupTestDB(t)

	cfg := DBTracingConfig{
		Enabled:         true,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "sqlite",
	}

	plugin := NewDBTracingPlugin(cfg, zap.NewNop())
	err := plugin.RegisterOtelGorm(db)

	require.NoError(t, err)
	assert.NotNil(t, db.Callback().Query().Get("otel_timing:before_query"))
	assert.NotNil(t, db.Callback().Query().Get("otel_span:after_query"))
	assert.NotNil(t, db.Callback().Create().Get("otel_span:after_create"))
}

func TestDBTracingPlugin_RegisterOtelGorm_WithFullSQL(t *testing.T) {
	db := setupTestDB(t)

	cfg := DBTracingConfig{
		Enabled:         true,
		LogFullSQL:      true,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "sqlite",
	}

	plugin := NewDBTracingPlugin(cfg, zap.NewNop())
	err := plugin.RegisterOtelGorm(db)

	assert.NoError(t, err)
}

func TestDBTracingPlugin_RegisterOtelGorm_DoubleRegistration(t *testing.T) {
	db := setupTestDB(t)

	cfg := DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "sqlite",
	}

	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	err := plugin.RegisterOtelGorm(db)
	assert.NoError(t, err)

	// Second registration hits duplicate plugin/callback names
	err = plugin.RegisterOtelGorm(db)
	assert.Error(t, err)
}

func TestEnrichSpan_RowsAffectedAndTable(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "bill-create")

	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	models := []TestModel{{Name: "alpha"}, {Name: "beta"}, {Name: "gamma"}}
	result := db.WithContext(ctx).Create(&models)
	require.NoError(t, result.Error)

	plugin.enrichSpan(result)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)

	var gotRows, gotTable bool
	for _, attr := range spans[0].Attributes() {
		switch attr.Key {
		case "db.rows_affected":
			gotRows = true
			assert.Equal(t, int64(3), attr.Value.AsInt64())
		case "db.sql.table":
			gotTable = true
			assert.Equal(t, "test_models", attr.Value.AsString())
		}
	}
	assert.True(t, gotRows, "db.rows_affected attribute should be present")
	assert.True(t, gotTable, "db.sql.table attribute should be present")
}

func TestEnrichSpan_RecordNotFoundIsNotError(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "bill-lookup")

	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	var got TestModel
	result := db.WithContext(ctx).First(&got, 99999)
	require.ErrorIs(t, result.Error, gorm.ErrRecordNotFound)

	plugin.enrichSpan(result)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code,
		"a lookup miss should not mark the span as failed")
}

func TestEnrichSpan_MarksErrors(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "bad-query")

	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	var n int
	result := db.WithContext(ctx).Raw("SELECT count(1) FROM missing_table").Scan(&n)
	require.Error(t, result.Error)

	plugin.enrichSpan(result)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Status().Description, "missing_table")
}

func TestEnrichSpan_SlowQuery(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "slow-query")

	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	result := db.WithContext(ctx).Create(&TestModel{Name: "slow"})
	require.NoError(t, result.Error)

	// Backdate the start time so the threshold check is deterministic
	result.Statement.Context = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))

	plugin.enrichSpan(result)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)

	foundSlow := false
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "db.slow_query" && attr.Value.AsBool() {
			foundSlow = true
		}
		if attr.Key == "db.query_duration_ms" {
			assert.GreaterOrEqual(t, attr.Value.AsInt64(), int64(900))
		}
	}
	assert.True(t, foundSlow, "db.slow_query attribute should be set")

	foundEvent := false
	for _, event := range spans[0].Events() {
		if event.Name != "slow_query_warning" {
			continue
		}
		foundEvent = true
		for _, attr := range event.Attributes {
			if attr.Key == "threshold_ms" {
				assert.Equal(t, int64(200), attr.Value.AsInt64())
			}
		}
	}
	assert.True(t, foundEvent, "slow_query_warning event should be recorded")
}

func TestEnrichSpan_FastQueryNotFlagged(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "fast-query")

	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	result := db.WithContext(ctx).Create(&TestModel{Name: "fast"})
	require.NoError(t, result.Error)

	result.Statement.Context = context.WithValue(ctx, queryStartTimeKey, time.Now())

	plugin.enrichSpan(result)
	span.End()

	spans := spanRecorder.Ended()
	require.NotEmpty(t, spans)

	for _, attr := range spans[0].Attributes() {
		assert.NotEqual(t, "db.slow_query", string(attr.Key),
			"fast queries should not carry the slow query flag")
	}
}

func TestEnrichSpan_NonRecordingSpan(t *testing.T) {
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	// Root statement context carries no span; must not panic
	plugin.enrichSpan(db)
}

func TestEnrichSpan_NilContext(t *testing.T) {
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	tx := db.Session(&gorm.Session{NewDB: true})
	tx.Statement.Context = nil

	// Must not panic
	plugin.enrichSpan(tx)
}

func TestDBTracingPlugin_IntegrationWithOtelGorm(t *testing.T) {
	db := setupTestDB(t)
	tp, spanRecorder := setupTracerWithExporter(t)

	cfg := DBTracingConfig{
		Enabled:         true,
		LogFullSQL:      true,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "sqlite",
	}

	plugin := NewDBTracingPlugin(cfg, zap.NewNop())
	err := plugin.RegisterOtelGorm(db)
	require.NoError(t, err)

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "integration-test")

	db = db.WithContext(ctx)
	result := db.Create(&TestModel{Name: "integration-test"})
	require.NoError(t, result.Error)

	var found TestModel
	result = db.First(&found, "name = ?", "integration-test")
	require.NoError(t, result.Error)
	assert.Equal(t, "integration-test", found.Name)

	span.End()

	spans := spanRecorder.Ended()
	assert.NotEmpty(t, spans)
}

// BenchmarkEnrichSpan benchmarks the after-query callback without an active span.
func BenchmarkEnrichSpan(b *testing.B) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		b.Fatal(err)
	}

	if err := db.AutoMigrate(&TestModel{}); err != nil {
		b.Fatal(err)
	}

	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
	db = db.WithContext(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		plugin.enrichSpan(db)
	}
}
