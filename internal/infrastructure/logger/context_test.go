package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext_Roundtrip(t *testing.T) {
	log := zap.NewNop()
	ctx := WithContext(context.Background(), log)

	assert.Same(t, log, FromContext(ctx))
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	log := FromContext(context.Background())

	require.NotNil(t, log)
	log.Info("must not panic")
}

func TestWithRequestID_EnrichesLoggerAndContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithRequestID(context.Background(), zap.New(core), "req-11")
	enriched.Info("pick recorded")

	assert.Equal(t, "req-11", GetRequestID(ctx))
	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "req-11", logs[0].ContextMap()["request_id"])
	// The enriched logger is also the one stored in the context
	assert.Same(t, enriched, FromContext(ctx))
}

func TestWithUserID_CarriesActor(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithUserID(context.Background(), zap.New(core), "9f2c1b3a")
	enriched.Info("payment recorded")

	assert.Equal(t, "9f2c1b3a", GetUserID(ctx))
	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "9f2c1b3a", logs[0].ContextMap()["user_id"])
}

func TestGetRequestID_EmptyWhenAbsent(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetUserID(context.Background()))
}

func TestTraceIDs_EmptyWithoutSpan(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func TestWithTraceContext_NoSpanLeavesLoggerUnchanged(t *testing.T) {
	log := zap.NewNop()

	assert.Same(t, log, WithTraceContext(context.Background(), log))
}

func TestL_InjectsContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = context.WithValue(ctx, RequestIDKey, "req-3")
	ctx = context.WithValue(ctx, UserIDKey, "picker-1")

	L(ctx).Info("allocation applied", zap.String("lot", "L-JAN"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "req-3", fields["request_id"])
	assert.Equal(t, "picker-1", fields["user_id"])
	assert.Equal(t, "L-JAN", fields["lot"])
}

func TestL_WithoutLoggerInContextIsSafe(t *testing.T) {
	L(context.Background()).Info("must not panic")
	L(context.Background()).Debug("nor this")
}

func TestContextLogger_WithAddsFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	L(ctx).With(zap.String("order_number", "SO-20240115-0001")).Warn("shortfall recorded")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, "SO-20240115-0001", logs[0].ContextMap()["order_number"])
}

func TestWithLogger_UsesProvidedLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	WithLogger(context.Background(), zap.New(core)).Info("numbering fallback engaged")

	assert.Len(t, recorded.All(), 1)
}
