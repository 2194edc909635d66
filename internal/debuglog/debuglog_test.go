package debuglog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/corkboard/corkboard/internal/debuglog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachAndFrom(t *testing.T) {
	ctx, rec := debuglog.Attach(context.Background())
	require.NotNil(t, rec)
	assert.Same(t, rec, debuglog.From(ctx))
}

func TestFromMissingIsNilSafe(t *testing.T) {
	rec := debuglog.From(context.Background())
	require.Nil(t, rec)

	// All operations must be no-ops on the nil recorder.
	rec.Add("key", "value")
	assert.Nil(t, rec.Attrs())
	rec.Flush(slog.New(slog.DiscardHandler), "request")
}

func TestAddAndFlush(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	_, rec := debuglog.Attach(context.Background())
	rec.Add("role", "visitor", "allowed", false)
	rec.Add("status", 405)

	require.Len(t, rec.Attrs(), 3)
	rec.Flush(logger, "request")

	out := buf.String()
	assert.Contains(t, out, `"role":"visitor"`)
	assert.Contains(t, out, `"allowed":false`)
	assert.Contains(t, out, `"status":405`)

	// Flushing drains the recorder.
	assert.Empty(t, rec.Attrs())
}

func TestAddDropsDanglingKey(t *testing.T) {
	_, rec := debuglog.Attach(context.Background())
	rec.Add("complete", true, "dangling")
	attrs := rec.Attrs()
	require.Len(t, attrs, 1)
	assert.Equal(t, "complete", attrs[0].Key)
}
