package config

import (
	"context"
	"fmt"

	"github.com/glizzus/pcmopus/internal/pipeline"
	"github.com/sethvargo/go-envconfig"
)

// EncoderConfig holds the framing and codec settings of an encode.
// The defaults are 20 ms stereo frames at 48 kHz.
type EncoderConfig struct {
	SampleRate      int    `env:"OPUS_SAMPLE_RATE, default=48000"`
	Channels        int    `env:"OPUS_CHANNELS, default=2"`
	SamplesPerFrame int    `env:"OPUS_SAMPLES_PER_FRAME, default=960"`
	MaxPacketSize   int    `env:"OPUS_MAX_PACKET_SIZE, default=4000"`
	Bitrate         int    `env:"OPUS_BITRATE, default=64000"`
	Complexity      int    `env:"OPUS_COMPLEXITY, default=10"`
	Application     string `env:"OPUS_APPLICATION, default=audio"`
	FailurePolicy   string `env:"OPUS_FAILURE_POLICY, default=abort"`
	FFmpegPath      string `env:"FFMPEG_PATH"`
}

func NewEncoderConfigFromEnv() (*EncoderConfig, error) {
	var cfg EncoderConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Pipeline(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Pipeline converts the settings into a validated pipeline.Config. Codec
// limits are left to the encoder.
func (c *EncoderConfig) Pipeline() (pipeline.Config, error) {
	policy, err := pipeline.ParseFailurePolicy(c.FailurePolicy)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("invalid OPUS_FAILURE_POLICY: %w", err)
	}
	cfg := pipeline.Config{
		SampleRate:      c.SampleRate,
		Channels:        c.Channels,
		SamplesPerFrame: c.SamplesPerFrame,
		MaxPacketSize:   c.MaxPacketSize,
		FailurePolicy:   policy,
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return cfg, nil
}

// DefaultEncoderConfig returns the settings used when no variables are set.
func DefaultEncoderConfig() *EncoderConfig {
	var cfg EncoderConfig
	err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MapLookuper(nil),
	})
	if err != nil {
		// Only reachable if a default tag above stops parsing.
		panic(fmt.Sprintf("invalid encoder config defaults: %v", err))
	}
	return &cfg
}
