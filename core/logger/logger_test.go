package logger_test

import (
	"bytes"
	"log"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/dimreg/core/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output with attrs", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(
			logger.WithJSONFormatter(),
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "dimreg")),
		)
		log.Info("published", logger.Dataset("163_156"), logger.Error(nil))

		out := buf.String()
		assert.Contains(t, out, `"msg":"published"`)
		assert.Contains(t, out, `"service":"dimreg"`)
		assert.Contains(t, out, `"dataset":"163_156"`)
		assert.NotContains(t, out, `"error"`)
	})

	t.Run("level filters records", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithLevel(slog.LevelWarn), logger.WithOutput(&buf))
		log.Info("hidden")
		log.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("config selects format and level", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithConfig(logger.Config{Level: "debug", Format: "JSON"}), logger.WithOutput(&buf))
		log.Debug("details")
		assert.Contains(t, buf.String(), `"level":"DEBUG"`)
	})

	t.Run("config defaults to text", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithJSONFormatter(), logger.WithConfig(logger.Config{Format: "text"}), logger.WithOutput(&buf))
		log.Info("plain")
		assert.Contains(t, buf.String(), "msg=plain")
		assert.NotContains(t, buf.String(), "{")
	})

	t.Run("config adds source", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithConfig(logger.Config{Format: "json", AddSource: true}), logger.WithOutput(&buf))
		log.Info("traced")
		assert.Contains(t, buf.String(), `"source":{`)
		assert.Contains(t, buf.String(), "logger_test.go")
	})

	t.Run("text formatter overrides json", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithJSONFormatter(), logger.WithTextFormatter(), logger.WithOutput(&buf))
		log.Info("plain")
		assert.Contains(t, buf.String(), "msg=plain")
	})

	t.Run("handler options level wins over WithLevel", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(
			logger.WithLevel(slog.LevelDebug),
			logger.WithHandlerOptions(&slog.HandlerOptions{Level: slog.LevelError}),
			logger.WithOutput(&buf),
		)
		log.Warn("hidden")
		log.Error("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

// Not parallel: replaces the process-wide default logger.
func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger.SetAsDefault(logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf)))
	slog.Info("via slog")
	log.Print("via log")

	out := buf.String()
	assert.Contains(t, out, `"msg":"via slog"`)
	assert.Contains(t, out, `"msg":"via log"`)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("verbose"))
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := logger.Discard()
	log.Error("dropped")
	assert.NotNil(t, log)
}
