package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Format: FormatJSON, Out: &buf})

	l.Info().Msg("hidden")
	l.Warn().Str("dataset", "abc").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "abc", entry["dataset"])
	assert.Contains(t, entry, "time")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")

	// A bare context yields a logger that discards.
	FromContext(context.Background()).Info().Msg("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}
