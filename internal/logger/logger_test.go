package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init("verbose"))
	assert.NoError(t, Init("debug"))
}
