package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/glizzus/pcmopus/internal/config"
	"github.com/glizzus/pcmopus/internal/pipeline"
	"github.com/google/go-cmp/cmp"
)

func TestNewEncoderConfigFromEnvDefaults(t *testing.T) {
	cfg, err := config.NewEncoderConfigFromEnv()
	if err != nil {
		t.Fatalf("NewEncoderConfigFromEnv() returned error: %v", err)
	}

	p, err := cfg.Pipeline()
	if err != nil {
		t.Fatalf("Pipeline() returned error: %v", err)
	}
	if diff := cmp.Diff(pipeline.DefaultConfig, p); diff != "" {
		t.Errorf("pipeline config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Bitrate != 64000 || cfg.Application != "audio" {
		t.Errorf("unexpected codec defaults: %+v", cfg)
	}
}

func TestNewEncoderConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("OPUS_SAMPLE_RATE", "16000")
	t.Setenv("OPUS_CHANNELS", "1")
	t.Setenv("OPUS_SAMPLES_PER_FRAME", "320")
	t.Setenv("OPUS_FAILURE_POLICY", "skip")

	cfg, err := config.NewEncoderConfigFromEnv()
	if err != nil {
		t.Fatalf("NewEncoderConfigFromEnv() returned error: %v", err)
	}
	p, err := cfg.Pipeline()
	if err != nil {
		t.Fatalf("Pipeline() returned error: %v", err)
	}
	want := pipeline.Config{SampleRate: 16000, Channels: 1, SamplesPerFrame: 320, MaxPacketSize: 4000, FailurePolicy: pipeline.SkipOnError}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("pipeline config mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEncoderConfigFromEnvInvalid(t *testing.T) {
	table := []struct {
		key   string
		value string
	}{
		{key: "OPUS_SAMPLE_RATE", value: "0"},
		{key: "OPUS_CHANNELS", value: "-2"},
		{key: "OPUS_SAMPLES_PER_FRAME", value: "0"},
		{key: "OPUS_FAILURE_POLICY", value: "retry"},
		{key: "OPUS_MAX_PACKET_SIZE", value: "not-a-number"},
	}

	for _, tc := range table {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := config.NewEncoderConfigFromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestNewEncoderConfigFromEnvLeavesCodecLimitsToEncoder(t *testing.T) {
	t.Setenv("OPUS_SAMPLE_RATE", "44100")
	t.Setenv("OPUS_CHANNELS", "6")
	t.Setenv("OPUS_SAMPLES_PER_FRAME", "1024")

	cfg, err := config.NewEncoderConfigFromEnv()
	if err != nil {
		t.Fatalf("NewEncoderConfigFromEnv() returned error: %v", err)
	}
	p, err := cfg.Pipeline()
	if err != nil {
		t.Fatalf("Pipeline() returned error: %v", err)
	}
	if p.FrameSize() != 6*1024 {
		t.Errorf("FrameSize() = %d, want %d", p.FrameSize(), 6*1024)
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OPUS_BITRATE=96000\n"), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	// Registers cleanup that restores the variable after LoadEnv sets it.
	t.Setenv("OPUS_BITRATE", "")
	os.Unsetenv("OPUS_BITRATE")

	if err := config.LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv() returned error: %v", err)
	}
	cfg, err := config.NewEncoderConfigFromEnv()
	if err != nil {
		t.Fatalf("NewEncoderConfigFromEnv() returned error: %v", err)
	}
	if cfg.Bitrate != 96000 {
		t.Errorf("Bitrate = %d, want 96000", cfg.Bitrate)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if !os.IsNotExist(err) {
		t.Errorf("LoadEnv() error = %v, want a not-exist error", err)
	}
}

func TestLogConfigLevel(t *testing.T) {
	table := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range table {
		if got := (config.LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "db",
		Port:     "5432",
		Username: "user",
		Password: "pw",
		Database: "pcmopus",
		SSLMode:  "disable",
	}
	want := "postgres://user:pw@db:5432/pcmopus?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestDefaultEncoderConfigIgnoresEnv(t *testing.T) {
	t.Setenv("OPUS_CHANNELS", "1")

	cfg := config.DefaultEncoderConfig()
	if cfg.Channels != 2 || cfg.SampleRate != 48000 || cfg.SamplesPerFrame != 960 || cfg.MaxPacketSize != 4000 {
		t.Errorf("DefaultEncoderConfig() = %+v", cfg)
	}
}

func TestPostgresPoolConfig(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "db",
		Port:     "5432",
		Username: "user",
		Password: "pw",
		Database: "pcmopus",
		SSLMode:  "disable",
		MaxConns: 7,
	}
	poolConfig, err := cfg.PoolConfig()
	if err != nil {
		t.Fatalf("PoolConfig() returned error: %v", err)
	}
	if poolConfig.MaxConns != 7 {
		t.Errorf("MaxConns = %d, want 7", poolConfig.MaxConns)
	}
	if poolConfig.ConnConfig.Host != "db" || poolConfig.ConnConfig.Database != "pcmopus" {
		t.Errorf("unexpected connection config: host %s database %s", poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Database)
	}
}
