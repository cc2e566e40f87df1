package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := NewLogger(&bytes.Buffer{}, tt.level)
			assert.True(t, l.Enabled(context.Background(), tt.want))
			assert.False(t, l.Enabled(context.Background(), tt.want-1))
		})
	}
}

func TestNewLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "info").Info("hive assessed", "hive_id", "hive_1")
	assert.Contains(t, buf.String(), `"hive_id":"hive_1"`)
	assert.Contains(t, buf.String(), `"msg":"hive assessed"`)
}

func TestLoadAWS_EndpointOverride(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg, err := AWSConfig{Region: "eu-west-2", EndpointURL: "http://localhost:4566"}.LoadAWS(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "eu-west-2", cfg.Region)
	if assert.NotNil(t, cfg.BaseEndpoint) {
		assert.Equal(t, "http://localhost:4566", *cfg.BaseEndpoint)
	}

	cfg, err = AWSConfig{Region: "eu-west-2"}.LoadAWS(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, cfg.BaseEndpoint)
}
