package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/config"
)

func newBufferedLogger(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	lm, err := InitLogger(&config.LogConfig{Level: level, Format: "json", Output: "stdout"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	lm.GetLogger().SetOutput(buf)
	return buf
}

func TestInitLoggerRejectsUnknownFormat(t *testing.T) {
	_, err := InitLogger(&config.LogConfig{Level: "info", Format: "xml", Output: "stdout"})
	assert.Error(t, err)

	_, err = InitLogger(nil)
	assert.Error(t, err)
}

func TestInitLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	lm, err := InitLogger(&config.LogConfig{Level: "loud", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	assert.Equal(t, "info", lm.GetLogger().GetLevel().String())
}

func TestFileOutputCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pathfinder.log")
	_, err := InitLogger(&config.LogConfig{Level: "info", Format: "json", Output: "file", FilePath: path, MaxSize: 1})
	require.NoError(t, err)

	Infof("hello %s", "file")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestLogScanOperationFields(t *testing.T) {
	buf := newBufferedLogger(t, "info")

	LogScanOperation("scan_1", "discovery", "10.0.0.0/24", "completed", 100, "3 alive", 1500*time.Millisecond, map[string]interface{}{"workers": 8})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scan", entry["type"])
	assert.Equal(t, "scan_1", entry["scan_id"])
	assert.Equal(t, float64(1500), entry["duration"])
	assert.Equal(t, float64(8), entry["workers"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogSecurityEventLevels(t *testing.T) {
	buf := newBufferedLogger(t, "info")

	LogSecurityEvent("weak_credential", "critical", "brute", "10.0.0.5:22", "root/toor", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "security", entry["type"])
}

func TestUpdateConfigChangesLevel(t *testing.T) {
	lm, err := InitLogger(&config.LogConfig{Level: "info", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	lm.GetLogger().SetOutput(&bytes.Buffer{})

	require.NoError(t, lm.UpdateConfig(&config.LogConfig{Level: "debug", Format: "json", Output: "stdout"}))
	assert.Equal(t, "debug", lm.GetLogger().GetLevel().String())
	assert.Error(t, lm.UpdateConfig(&config.LogConfig{Level: "nope", Format: "json", Output: "stdout"}))
}

func TestLogSystemEventAndUpdateOutput(t *testing.T) {
	buf := newBufferedLogger(t, "debug")

	LogSystemEvent("history", "open", "history store opened", DebugLevel, map[string]interface{}{"driver": "sqlite"})
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "system", entry["type"])
	assert.Equal(t, "sqlite", entry["driver"])
	assert.Equal(t, "debug", entry["level"])

	path := filepath.Join(t.TempDir(), "out.log")
	cfg := *LoggerInstance.GetConfig()
	cfg.Output = "file"
	cfg.FilePath = path
	cfg.Level = "info"
	require.NoError(t, LoggerInstance.UpdateConfig(&cfg))
	assert.Equal(t, "file", LoggerInstance.GetConfig().Output)

	Warnf("moved to %s", "file")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "moved to file")
}

func TestHelpersAreSilentWithoutLogger(t *testing.T) {
	saved := LoggerInstance
	LoggerInstance = nil
	defer func() { LoggerInstance = saved }()

	assert.NotPanics(t, func() {
		Infof("x")
		LogScanOperation("", "alive", "10.0.0.1", "completed", 100, "", 0, nil)
		assert.NotNil(t, WithFields(nil))
	})
}
