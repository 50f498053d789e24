package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/localnerve/proverbs-sync/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelAndFormat(t *testing.T) {
	log, err := New(&config.Config{LogLevel: "debug", LogFormat: "json"})
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(&config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New(&config.Config{LogLevel: "info", LogFormat: "xml"})
	assert.Error(t, err)
}

func TestNew_WritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proverbs.log")

	log, err := New(&config.Config{LogLevel: "info", LogFormat: "text", LogFile: path})
	require.NoError(t, err)

	log.WithField("component", "test").Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "component=test")
}
