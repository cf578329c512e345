package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rostermerge/pkg/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}

func TestNewLoggerFromConfigWritesFile(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(originalLevel)

	path := filepath.Join(t.TempDir(), "run.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "debug",
		Format: "json",
		Output: path,
	})
	logger.Info().Str("jurisdiction", "ak").Msg("reconciling")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "reconciling")
	assert.Contains(t, string(content), `"jurisdiction":"ak"`)
}

func TestConfigLevels(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(originalLevel)

	tests := []struct {
		name      string
		level     string
		wantInfo  bool
		wantError bool
	}{
		{name: "info", level: "info", wantInfo: true, wantError: true},
		{name: "error only", level: "error", wantInfo: false, wantError: true},
		{name: "unknown falls back to info", level: "chatty", wantInfo: true, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.NewLoggerFromConfig(&logging.Config{Level: tt.level, Format: "json"}).Output(buf)
			logger.Info().Msg("info line")
			logger.Error().Msg("error line")

			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
			assert.Equal(t, tt.wantError, bytes.Contains(buf.Bytes(), []byte("error line")))
		})
	}
}

func TestSetDefault(t *testing.T) {
	original := *logging.Default()
	defer logging.SetDefault(original)

	var buf bytes.Buffer
	logging.SetDefault(zerolog.New(&buf).Level(zerolog.InfoLevel))
	logging.Info().Msg("through the default")
	assert.Contains(t, buf.String(), "through the default")
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithJurisdiction(ctx, "mt")
	ctx = logging.WithRunID(ctx, "run-1")
	ctx = logging.WithPerson(ctx, "ocd-person/abc")
	ctx = logging.WithOperation(ctx, "retire")
	ctx = logging.WithField(ctx, "error", errors.New("boom"))

	logging.FromContext(ctx).Info().Msg("retired person")

	tl.AssertContains(t, `"jurisdiction":"mt"`)
	tl.AssertContains(t, `"run_id":"run-1"`)
	tl.AssertContains(t, `"person_id":"ocd-person/abc"`)
	tl.AssertContains(t, `"operation":"retire"`)
	tl.AssertContains(t, `"error":"boom"`)
	assert.Equal(t, 1, tl.Count())
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Same(t, logging.Default(), logging.Ctx(context.Background()))
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)
	tl.Logger.Info().Msg("message 1")
	tl.Logger.Warn().Msg("message 2")

	tl.AssertContains(t, "message 1")
	tl.AssertNotContains(t, "message 3")
	assert.Equal(t, 2, tl.Count())

	tl.Clear()
	assert.Equal(t, 0, tl.Count())
}
