package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"Warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info", false)
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Int("fighter", 1).Msg("strike")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), "expected exactly one JSON line, got %q", buf.String())

	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "strike", line["message"])
	assert.Equal(t, float64(1), line["fighter"])
	assert.Contains(t, line, "time")
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "debug", true)
	require.NoError(t, err)

	log.Debug().Str("kind", "takedown").Msg("event detected")

	assert.Contains(t, buf.String(), "event detected")
	assert.Contains(t, buf.String(), "takedown")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", false)
	assert.Error(t, err)
}
