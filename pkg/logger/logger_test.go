package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_LevelFallback(t *testing.T) {
	log, err := newLogger("not-a-level")
	require.NoError(t, err)

	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_DebugLevel(t *testing.T) {
	log, err := newLogger("debug")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestInit_KeepsFirstInstance(t *testing.T) {
	require.NoError(t, Init("info"))
	first := Get()
	require.NotNil(t, first)

	require.NoError(t, Init("debug"))
	assert.Same(t, first, Get())
}
