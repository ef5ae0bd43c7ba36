package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/config"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, config.LoggingConfig{Level: "info", Format: "json"})

	logger.Info("run started", "files", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run started", entry["msg"])
	assert.Equal(t, 3.0, entry["files"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, config.LoggingConfig{Level: "info", Format: "text"})

	logger.Info("run started")
	assert.True(t, strings.Contains(buf.String(), "msg=\"run started\""))
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, config.LoggingConfig{Level: "warn", Format: "json"})

	logger.Info("suppressed")
	assert.Empty(t, buf.Bytes())

	logger.Warn("kept")
	assert.NotEmpty(t, buf.Bytes())
}

func TestParseLevel_UnknownDefaultsToInfo(t *testing.T) {
	assert.Equal(t, parseLevel("info"), parseLevel("verbose"))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	// Two instances must not collide in a shared registry.
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.FilesProcessed.Inc()
	assert.NotSame(t, a.FilesProcessed, b.FilesProcessed)
}
