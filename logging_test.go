package gridshadow

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger_Levels(t *testing.T) {
	var out bytes.Buffer
	l := NewDefaultLogger(LogOptions{Prefix: "gs", Level: "info", Console: &out})

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Warnf("careful")
	require.NoError(t, l.Sync())

	text := out.String()
	assert.NotContains(t, text, "hidden")
	assert.Contains(t, text, "INFO")
	assert.Contains(t, text, "shown 2")
	assert.Contains(t, text, "gs")
	assert.Contains(t, text, "WARN")
	assert.False(t, l.DebugEnabled())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("now visible")
	assert.Contains(t, out.String(), "now visible")

	l.SetDebug(false)
	assert.False(t, l.DebugEnabled())
}

func TestLoggingModule_InstallsLogger(t *testing.T) {
	var out bytes.Buffer
	app := NewAppBuilder().UseModule(LoggingModule{Level: "warn", Console: &out}).Build()

	logger := app.Logger()
	require.IsType(t, &DefaultLogger{}, logger)
	logger.Infof("dropped")
	logger.Errorf("kept")
	assert.NotContains(t, out.String(), "dropped")
	assert.Contains(t, out.String(), "kept")
}

func TestApp_LoggerFallsBackToNop(t *testing.T) {
	var app *App
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, NewAppBuilder().Build().Logger())
	assert.False(t, NewAppBuilder().Build().Logger().DebugEnabled())
}

func TestLoggingModule_WritesFile(t *testing.T) {
	path := t.TempDir() + "/gridshadow.log"
	l := NewDefaultLogger(LogOptions{Level: "debug", File: path, Console: &bytes.Buffer{}})

	l.Debugf("to file")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")
	assert.Contains(t, string(data), "to file")
}
