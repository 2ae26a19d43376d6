package logging_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/infrastructure/config"
	"github.com/andrescamacho/gangsim/internal/infrastructure/logging"
)

func TestLogrusLogger_MapsLevelsAndFields(t *testing.T) {
	// Arrange
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	logger := logging.NewLoggerFrom(base).With(map[string]interface{}{"site": "resource-0"})

	// Act
	logger.Log("WARNING", "attack fizzled", map[string]interface{}{"attacker": "gangs:3"})
	logger.Log("DEBUG", "settled", nil)

	// Assert
	require.Len(t, hook.AllEntries(), 2)
	first := hook.AllEntries()[0]
	assert.Equal(t, logrus.WarnLevel, first.Level)
	assert.Equal(t, "attack fizzled", first.Message)
	assert.Equal(t, "resource-0", first.Data["site"])
	assert.Equal(t, "gangs:3", first.Data["attacker"])
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, _, err := logging.NewLogger(config.LoggingConfig{Level: "loud", Format: "text", Output: "stderr"})

	assert.Error(t, err)
}

func TestNewLogger_WritesToFile(t *testing.T) {
	path := t.TempDir() + "/gangsim.log"

	logger, closer, err := logging.NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: path})
	require.NoError(t, err)
	logger.Log("INFO", "hello", nil)

	assert.NoError(t, closer.Close())
	assert.FileExists(t, path)
}
