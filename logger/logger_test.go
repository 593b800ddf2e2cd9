package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONLineWithMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New("netterd")
	l.Output = &buf

	l.Info("route registered", map[string]interface{}{"path": "/u/{id}"})

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "netterd", decoded["app_name"])
	assert.Equal(t, "INFO", decoded["level"])
	assert.Equal(t, "route registered", decoded["message"])
	assert.Equal(t, "/u/{id}", decoded["path"])
}

func TestLoggerSuppressesBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("netterd")
	l.Output = &buf
	l.SetMinLevel(LevelWarn)

	l.Info("should not appear", nil)
	assert.Empty(t, buf.String())

	l.Error("should appear", nil)
	assert.NotEmpty(t, buf.String())
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "TRACE", LevelTrace.String())
	assert.Equal(t, "FATAL", LevelFatal.String())
}
