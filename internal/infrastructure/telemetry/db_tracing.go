package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the gorm query spans.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL includes bind variables in spans. Off outside dev:
	// pick and invoice rows carry customer data.
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns the production defaults: tracing off,
// variables redacted, 200ms slow threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin layers slow-query and error annotations on top of the
// otelgorm spans, so a FEFO scan that misses its threshold is visible on the
// trace without consulting the log.
type DBTracingPlugin struct {
	cfg DBTracingConfig
	log *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, log *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{cfg: cfg, log: log}
}

// RegisterOtelGorm installs otelgorm plus this plugin's timing callbacks on
// the gorm instance. A disabled config registers nothing.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.cfg.Enabled {
		p.log.Debug("database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
	if !p.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.log.Info("database tracing enabled",
		zap.Bool("log_full_sql", p.cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThresh),
	)
	return nil
}

// registerCallbacks hooks a start-time stamp before each gorm operation and
// the annotation pass after it, across all six operation kinds.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	type registrar = func(name string, fn func(*gorm.DB)) error
	hooks := []struct {
		op            string
		before, after registrar
	}{
		{"create", db.Callback().Create().Before("gorm:create").Register, db.Callback().Create().After("gorm:create").Register},
		{"query", db.Callback().Query().Before("gorm:query").Register, db.Callback().Query().After("gorm:query").Register},
		{"update", db.Callback().Update().Before("gorm:update").Register, db.Callback().Update().After("gorm:update").Register},
		{"delete", db.Callback().Delete().Before("gorm:delete").Register, db.Callback().Delete().After("gorm:delete").Register},
		{"row", db.Callback().Row().Before("gorm:row").Register, db.Callback().Row().After("gorm:row").Register},
		{"raw", db.Callback().Raw().Before("gorm:raw").Register, db.Callback().Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("tracing:stamp_"+h.op, stampStart); err != nil {
			return err
		}
		if err := h.after("tracing:annotate_"+h.op, p.annotate); err != nil {
			return err
		}
	}
	return nil
}

func stampStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = WithQueryStartTime(db.Statement.Context)
	}
}

// annotate enriches the otelgorm span with row counts, the table touched and
// a slow-query event. ErrRecordNotFound is an expected outcome for lookups
// and never marks the span as failed.
func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.cfg.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.cfg.SlowQueryThresh.Milliseconds()),
		))
	}
}

type contextKey string

const queryStartTimeKey contextKey = "query_start_time"

// WithQueryStartTime stamps the context with the moment a query began.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}
