package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	Initialize(Config{Level: level, Format: "json", Output: buf})
	t.Cleanup(func() { globalLogger = nil })
	return buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	return line
}

func TestInfo_WritesFieldsAndCaller(t *testing.T) {
	buf := captureJSON(t, "debug")

	Info("cart updated", Fields{"user_id": 7})

	line := decodeLine(t, buf)
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "cart updated", line["message"])
	assert.EqualValues(t, 7, line["user_id"])
	assert.Contains(t, line["caller"], "logger_test.go")
}

func TestError_IncludesErr(t *testing.T) {
	buf := captureJSON(t, "info")

	Get().Error("gateway failed", errors.New("boom"))

	line := decodeLine(t, buf)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "boom", line["error"])
}

func TestLevelFiltering(t *testing.T) {
	buf := captureJSON(t, "warn")

	Debug("hidden")
	Info("hidden")
	assert.Zero(t, buf.Len())

	Warn("shown")
	assert.NotZero(t, buf.Len())
}

func TestWithContext_CarriesFields(t *testing.T) {
	buf := captureJSON(t, "info")

	WithContext(Fields{"request_id": "abc"}).Info("handled")

	line := decodeLine(t, buf)
	assert.Equal(t, "abc", line["request_id"])
}
