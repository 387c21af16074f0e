package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONOutsideDev(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	l := initTo(&buf, "debug", "prod")
	l.Debug().Str("username", "alice").Msg("login ok")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "alice", line["username"])
	assert.Contains(t, line, "caller")
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	l := initTo(&buf, "chatty", "prod")
	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestInit_ConsoleInDev(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	l := initTo(&buf, "info", "dev")
	l.Info().Msg("listening")
	assert.Contains(t, buf.String(), "listening")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
