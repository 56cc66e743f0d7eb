package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &got))
	return got
}

func TestLog_WritesJSONLine(t *testing.T) {
	buf := capture(t)

	Log(Fields{Service: "orders", OrderID: "o-1", Step: "place", Status: "ok", DurationMS: 3})

	got := decodeLine(t, buf)
	assert.Equal(t, "orders", got["service"])
	assert.Equal(t, "o-1", got["order_id"])
	assert.Equal(t, "place", got["step"])
	assert.Equal(t, float64(3), got["duration_ms"])
	assert.Equal(t, "INFO", got["level"])
	assert.NotEmpty(t, got["time"])
	assert.NotContains(t, got, "user_id")
}

func TestLog_ErrorStatusUsesErrorLevel(t *testing.T) {
	buf := capture(t)

	Log(Fields{Service: "archive-worker", Status: "error", Message: "database unavailable"})

	got := decodeLine(t, buf)
	assert.Equal(t, "ERROR", got["level"])
	assert.Equal(t, "database unavailable", got["msg"])
}
