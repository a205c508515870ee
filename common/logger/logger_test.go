package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json")

	log.WithAppID("a1").WithFields(map[string]any{"kind": "policy"}).Info("enqueued", "id", "r1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "enqueued", entry["msg"])
	assert.Equal(t, "a1", entry["appid"])
	assert.Equal(t, "policy", entry["kind"])
	assert.Equal(t, "r1", entry["id"])
}

func TestError_AttachesStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.Error("boom", "error", "x")

	assert.Contains(t, buf.String(), `"stack"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.True(t, strings.Contains(out, "shown"))
}

func TestWithContext_NoSpan(t *testing.T) {
	log := Discard()
	assert.Same(t, log, log.WithContext(context.Background()))
}
