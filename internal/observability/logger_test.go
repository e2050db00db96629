package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "")

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = actorctx.WithActor(ctx, actorctx.Actor{UserID: "user-1", Role: "admin"})

	log.InfoContext(ctx, "task created", "task_id", "t1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "task created", line["msg"])
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, "admin", line["role"])
	assert.NotContains(t, line, "trace_id")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLevel("prod", "WARN"))
	assert.Equal(t, slog.LevelDebug, parseLevel("dev", ""))
	assert.Equal(t, slog.LevelInfo, parseLevel("prod", "verbose"))
}

func TestLogger_ProdDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "")

	log.Debug("noisy")
	assert.Zero(t, buf.Len())
}
