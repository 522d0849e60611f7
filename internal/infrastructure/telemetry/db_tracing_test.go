package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTracedGormDB(t *testing.T) *gorm.DB {
	t.Helper()
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db
}

// recordingSpanContext starts a recording span and returns its context plus
// the recorder holding whatever the span captured once ended.
func recordingSpanContext(t *testing.T) (context.Context, func() sdktrace.ReadOnlySpan) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "ledger.query")
	ended := func() sdktrace.ReadOnlySpan {
		span.End()
		spans := sr.Ended()
		require.Len(t, spans, 1)
		return spans[0]
	}
	return ctx, ended
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL, "bind variables stay redacted by default")
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestRegisterOtelGorm_DisabledRegistersNothing(t *testing.T) {
	db := newTracedGormDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zap.NewNop())

	require.NoError(t, p.RegisterOtelGorm(db))

	assert.Nil(t, db.Callback().Query().Get("tracing:annotate_query"))
	assert.Nil(t, db.Callback().Create().Get("tracing:stamp_create"))
}

func TestRegisterOtelGorm_RegistersTimingCallbacks(t *testing.T) {
	db := newTracedGormDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	p := NewDBTracingPlugin(cfg, zap.NewNop())

	require.NoError(t, p.RegisterOtelGorm(db))

	for _, op := range []string{"create", "query", "update", "delete", "row", "raw"} {
		assert.NotNil(t, db.Callback().Query().Get("tracing:stamp_"+op), op)
		assert.NotNil(t, db.Callback().Query().Get("tracing:annotate_"+op), op)
	}
}

func TestAnnotate_RowsAndTableOnSpan(t *testing.T) {
	ctx, ended := recordingSpanContext(t)
	db := newTracedGormDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	tx := db.WithContext(ctx)
	tx.Statement.RowsAffected = 3
	tx.Statement.Table = "stock_units"
	p.annotate(tx)

	span := ended()
	rows, ok := attrValue(span.Attributes(), "db.rows_affected")
	require.True(t, ok)
	assert.Equal(t, int64(3), rows.AsInt64())
	table, ok := attrValue(span.Attributes(), "db.sql.table")
	require.True(t, ok)
	assert.Equal(t, "stock_units", table.AsString())
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestAnnotate_QueryErrorMarksSpan(t *testing.T) {
	ctx, ended := recordingSpanContext(t)
	db := newTracedGormDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	tx := db.WithContext(ctx)
	tx.Error = errors.New("deadlock detected")
	p.annotate(tx)

	span := ended()
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "deadlock detected", span.Status().Description)
}

func TestAnnotate_RecordNotFoundIsNotAnError(t *testing.T) {
	ctx, ended := recordingSpanContext(t)
	db := newTracedGormDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	tx := db.WithContext(ctx)
	tx.Error = gorm.ErrRecordNotFound
	p.annotate(tx)

	assert.Equal(t, codes.Unset, ended().Status().Code)
}

func TestAnnotate_SlowQueryGetsEvent(t *testing.T) {
	ctx, ended := recordingSpanContext(t)
	db := newTracedGormDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.SlowQueryThresh = time.Nanosecond
	p := NewDBTracingPlugin(cfg, zap.NewNop())

	stamped := WithQueryStartTime(ctx)
	time.Sleep(time.Millisecond)
	tx := db.WithContext(stamped)
	p.annotate(tx)

	span := ended()
	slow, ok := attrValue(span.Attributes(), "db.slow_query")
	require.True(t, ok)
	assert.True(t, slow.AsBool())

	require.NotEmpty(t, span.Events())
	assert.Equal(t, "slow_query", span.Events()[0].Name)
}

func TestAnnotate_FastQueryStaysQuiet(t *testing.T) {
	ctx, ended := recordingSpanContext(t)
	db := newTracedGormDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	tx := db.WithContext(WithQueryStartTime(ctx))
	p.annotate(tx)

	span := ended()
	_, ok := attrValue(span.Attributes(), "db.slow_query")
	assert.False(t, ok)
	assert.Empty(t, span.Events())
}

func TestAnnotate_NonRecordingSpanIgnored(t *testing.T) {
	db := newTracedGormDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	// context without a span must not panic
	tx := db.WithContext(context.Background())
	tx.Statement.RowsAffected = 1
	p.annotate(tx)
}

func TestWithQueryStartTime(t *testing.T) {
	before := time.Now()
	ctx := WithQueryStartTime(context.Background())

	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	require.True(t, ok)
	assert.False(t, start.Before(before))
	assert.False(t, start.After(time.Now()))
}
