package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cable-billing/internal/logger"
)

func TestNewWithWriterLevels(t *testing.T) {
	tests := []struct {
		env   string
		level slog.Level
	}{
		{logger.EnvLocal, slog.LevelDebug},
		{logger.EnvDev, slog.LevelInfo},
		{logger.EnvProd, slog.LevelWarn},
		{"staging", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter(tt.env, &buf)
			assert.True(t, log.Enabled(context.Background(), tt.level))
			assert.False(t, log.Enabled(context.Background(), tt.level-1))
		})
	}
}

func TestUnknownEnvAnnouncesItself(t *testing.T) {
	var buf bytes.Buffer
	logger.NewWithWriter("", &buf)
	assert.Contains(t, buf.String(), "available_envs")
}

func TestProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger.NewWithWriter(logger.EnvProd, &buf).Warn("publish failed", slog.Int64("payment_id", 7))
	assert.Contains(t, buf.String(), `"payment_id":7`)
	assert.NotContains(t, buf.String(), `"time"`)
}
