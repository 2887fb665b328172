package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with console writer", func(t *testing.T) {
		var console bytes.Buffer
		logger := NewLogger(Config{Level: "info", Color: "never", Console: &console})
		require.NotNil(t, logger)

		logger.Info().Str("package", "foo").Msg("package parsed")
		assert.Contains(t, console.String(), "package parsed")
		assert.Contains(t, console.String(), "foo")
	})

	t.Run("creates logger with file writer", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "logs", "debinstall.log")

		var console bytes.Buffer
		logger := NewLogger(Config{Level: "info", LogFile: logFile, Color: "never", Console: &console})
		require.NotNil(t, logger)

		logger.Info().Msg("test")

		_, err := os.Stat(logFile)
		assert.NoError(t, err)
	})

	t.Run("respects level", func(t *testing.T) {
		var console bytes.Buffer
		logger := NewLogger(Config{Level: "warn", Color: "never", Console: &console})

		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")

		assert.NotContains(t, console.String(), "hidden")
		assert.Contains(t, console.String(), "shown")
	})
}

func TestNoColor(t *testing.T) {
	var buf bytes.Buffer

	t.Run("always", func(t *testing.T) {
		assert.False(t, NoColor("always", &buf))
	})

	t.Run("never", func(t *testing.T) {
		assert.True(t, NoColor("never", &buf))
	})

	t.Run("auto with non-terminal writer", func(t *testing.T) {
		assert.True(t, NoColor("auto", &buf))
	})

	t.Run("auto with NO_COLOR", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		assert.True(t, NoColor("auto", os.Stderr))
	})

	t.Run("auto with TERM=dumb", func(t *testing.T) {
		t.Setenv("TERM", "dumb")
		assert.True(t, NoColor("auto", os.Stderr))
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("component", "session").Msg("test message")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, `"component":"session"`)
}

func TestProgressSafeWriter(t *testing.T) {
	t.Run("clears line before a new record", func(t *testing.T) {
		var buf bytes.Buffer
		writer := newProgressSafeWriter(&buf)

		n, err := writer.Write([]byte("line1\n"))
		require.NoError(t, err)
		assert.Equal(t, 6, n)
		assert.Equal(t, "\r\033[Kline1\n", buf.String())
	})

	t.Run("does not clear in the middle of a line", func(t *testing.T) {
		var buf bytes.Buffer
		writer := newProgressSafeWriter(&buf)

		writer.Write([]byte("part"))
		writer.Write([]byte("ial\n"))

		assert.Equal(t, "\r\033[Kpartial\n", buf.String())
	})

	t.Run("multiple lines", func(t *testing.T) {
		var buf bytes.Buffer
		writer := newProgressSafeWriter(&buf)

		writer.Write([]byte("line1\n"))
		writer.Write([]byte("line2\n"))

		assert.Equal(t, 2, strings.Count(buf.String(), "\r\033[K"))
	})

	t.Run("concurrent writes", func(t *testing.T) {
		var buf bytes.Buffer
		writer := newProgressSafeWriter(&buf)

		done := make(chan bool)
		for range 10 {
			go func() {
				writer.Write([]byte("concurrent\n"))
				done <- true
			}()
		}
		for range 10 {
			<-done
		}

		assert.Equal(t, 10, strings.Count(buf.String(), "concurrent"))
	})
}
