package pipeline

import (
	"fmt"
	"time"
)

// FailurePolicy decides what a run does when the Encoder rejects a frame.
type FailurePolicy int

const (
	// AbortOnError discards all output on the first failed frame.
	AbortOnError FailurePolicy = iota
	// SkipOnError drops failed frames and keeps encoding.
	SkipOnError
)

func (p FailurePolicy) String() string {
	switch p {
	case AbortOnError:
		return "abort"
	case SkipOnError:
		return "skip"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy accepts "abort" or "skip".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "abort":
		return AbortOnError, nil
	case "skip":
		return SkipOnError, nil
	default:
		return 0, fmt.Errorf("unknown failure policy %q", s)
	}
}

// MaxPacketLimit is the largest packet the length-prefixed stream can hold.
const MaxPacketLimit = 1<<16 - 1

// DefaultConfig is 20 ms stereo frames at 48 kHz with a 4000 byte packet slot.
var DefaultConfig = Config{
	SampleRate:      48000,
	Channels:        2,
	SamplesPerFrame: 960,
	MaxPacketSize:   4000,
	FailurePolicy:   AbortOnError,
}

// Config fixes the framing parameters of a run.
type Config struct {
	SampleRate      int
	Channels        int
	SamplesPerFrame int // per channel
	MaxPacketSize   int
	FailurePolicy   FailurePolicy
}

// FrameSize is the number of interleaved samples per frame.
func (c Config) FrameSize() int {
	return c.Channels * c.SamplesPerFrame
}

// FrameDuration is the playback time covered by one frame.
func (c Config) FrameDuration() time.Duration {
	return time.Duration(c.SamplesPerFrame) * time.Second / time.Duration(c.SampleRate)
}

// Validate checks the framing parameters. Codec limits such as the sample
// rates an encoder supports are checked by the encoder.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return &ConfigError{Field: "SampleRate", Reason: fmt.Sprintf("%d is not positive", c.SampleRate)}
	}
	if c.Channels <= 0 {
		return &ConfigError{Field: "Channels", Reason: fmt.Sprintf("%d is not positive", c.Channels)}
	}
	if c.SamplesPerFrame <= 0 {
		return &ConfigError{Field: "SamplesPerFrame", Reason: fmt.Sprintf("%d is not positive", c.SamplesPerFrame)}
	}
	if c.MaxPacketSize <= 0 || c.MaxPacketSize > MaxPacketLimit {
		return &ConfigError{Field: "MaxPacketSize", Reason: fmt.Sprintf("%d is outside 1..%d", c.MaxPacketSize, MaxPacketLimit)}
	}
	if c.FailurePolicy != AbortOnError && c.FailurePolicy != SkipOnError {
		return &ConfigError{Field: "FailurePolicy", Reason: "is unknown"}
	}
	return nil
}
