package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibektako/borrow-lend-backend/internal/logging"
)

func TestNewWithOutput(t *testing.T) {
	t.Parallel()

	t.Run("json format with service attr", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logging.NewWithOutput(logging.Config{Level: "info", Format: logging.FormatJSON}, "borrow-lend", &buf)
		log.Info("hello", logging.UserID("u1"))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "hello", record["msg"])
		assert.Equal(t, "borrow-lend", record["service"])
		assert.Equal(t, "u1", record["user_id"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logging.NewWithOutput(logging.Config{Level: "info", Format: logging.FormatText}, "", &buf)
		log.Info("hello")

		assert.Contains(t, buf.String(), "msg=hello")
		assert.NotContains(t, buf.String(), "service=")
	})

	t.Run("level filtering", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logging.NewWithOutput(logging.Config{Level: "warn", Format: logging.FormatJSON}, "", &buf)
		log.Info("dropped")
		log.Warn("kept")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "kept")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logging.NewWithOutput(logging.Config{Level: "noisy", Format: logging.FormatJSON}, "", &buf)
		log.Info("visible")

		assert.Contains(t, buf.String(), "visible")
	})
}
