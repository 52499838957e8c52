package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := NewLogger(level)
		require.NoError(t, err, "level %s", level)
		require.NotNil(t, log)
	}
}

func TestNewLoggerUnknownLevel(t *testing.T) {
	_, err := NewLogger("verbose")
	assert.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	log := NewNop()

	// Must not panic.
	log.Debug("debug", String("k", "v"))
	log.Info("info", Int("n", 1))
	log.Warn("warn", Bool("b", true))
	log.Error("error", Err(assert.AnError))

	child := log.With(String("component", "test"))
	require.NotNil(t, child)
	child.Info("from child")
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, Field{Key: "name", Value: "phaser"}, String("name", "phaser"))
	assert.Equal(t, Field{Key: "count", Value: 3}, Int("count", 3))
	assert.Equal(t, "error", Err(assert.AnError).Key)
}
