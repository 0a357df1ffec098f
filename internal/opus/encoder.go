package opus

import (
	"errors"
	"fmt"
	"slices"

	"github.com/glizzus/pcmopus/internal/pipeline"
	libopus "gopkg.in/hraban/opus.v2"
)

// CodeBadFrame is the EncodeError code for frames of the wrong length. It
// matches libopus' OPUS_BAD_ARG.
const CodeBadFrame = -1

// EncoderConfig configures a libopus encoder.
type EncoderConfig struct {
	SampleRate      int
	Channels        int
	SamplesPerFrame int
	MaxPacketSize   int
	// Bitrate in bits per second. Zero leaves the libopus default.
	Bitrate int
	// Complexity from 0 to 10. Negative leaves the libopus default.
	Complexity  int
	Application string
}

// SampleRates are the input rates libopus accepts.
var SampleRates = []int{8000, 12000, 16000, 24000, 48000}

// ValidateFormat checks framing parameters against what libopus can encode:
// a supported rate, mono or stereo, and 2.5, 5, 10, 20, 40 or 60 ms frames.
func ValidateFormat(sampleRate, channels, samplesPerFrame int) error {
	if !slices.Contains(SampleRates, sampleRate) {
		return &pipeline.ConfigError{Field: "SampleRate", Reason: fmt.Sprintf("%d is not one of %v", sampleRate, SampleRates)}
	}
	if channels != 1 && channels != 2 {
		return &pipeline.ConfigError{Field: "Channels", Reason: fmt.Sprintf("%d is not 1 or 2", channels)}
	}
	if !validFrameDuration(sampleRate, samplesPerFrame) {
		return &pipeline.ConfigError{Field: "SamplesPerFrame", Reason: fmt.Sprintf("%d at %d Hz is not 2.5, 5, 10, 20, 40 or 60 ms", samplesPerFrame, sampleRate)}
	}
	return nil
}

func validFrameDuration(sampleRate, samplesPerFrame int) bool {
	// Durations in tenths of a millisecond.
	for _, d := range []int{25, 50, 100, 200, 400, 600} {
		if sampleRate*d == samplesPerFrame*10000 {
			return true
		}
	}
	return false
}

// ParseApplication maps "audio", "voip" and "lowdelay" to libopus
// application modes.
func ParseApplication(s string) (libopus.Application, error) {
	switch s {
	case "", "audio":
		return libopus.AppAudio, nil
	case "voip":
		return libopus.AppVoIP, nil
	case "lowdelay":
		return libopus.AppRestrictedLowdelay, nil
	default:
		return 0, fmt.Errorf("unknown opus application %q", s)
	}
}

// Encoder wraps a libopus encoder. It is stateful and must be used by one
// pipeline at a time.
type Encoder struct {
	enc       *libopus.Encoder
	frameSize int
	out       []byte
}

// NewEncoder creates a libopus encoder for cfg.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if err := ValidateFormat(cfg.SampleRate, cfg.Channels, cfg.SamplesPerFrame); err != nil {
		return nil, err
	}
	app, err := ParseApplication(cfg.Application)
	if err != nil {
		return nil, err
	}

	enc, err := libopus.NewEncoder(cfg.SampleRate, cfg.Channels, app)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	if cfg.Bitrate > 0 {
		if err := enc.SetBitrate(cfg.Bitrate); err != nil {
			return nil, fmt.Errorf("failed to set opus bitrate %d: %w", cfg.Bitrate, err)
		}
	}
	if cfg.Complexity >= 0 {
		if err := enc.SetComplexity(cfg.Complexity); err != nil {
			return nil, fmt.Errorf("failed to set opus complexity %d: %w", cfg.Complexity, err)
		}
	}

	return &Encoder{
		enc:       enc,
		frameSize: cfg.Channels * cfg.SamplesPerFrame,
		out:       make([]byte, cfg.MaxPacketSize),
	}, nil
}

// Encode compresses one frame of interleaved samples. The returned packet
// is a fresh slice.
func (e *Encoder) Encode(frame []int16) ([]byte, error) {
	if len(frame) != e.frameSize {
		return nil, &pipeline.EncodeError{
			Code: CodeBadFrame,
			Err:  fmt.Errorf("frame has %d samples, want %d", len(frame), e.frameSize),
		}
	}

	n, err := e.enc.Encode(frame, e.out)
	if err != nil {
		code := CodeBadFrame
		var opusErr libopus.Error
		if errors.As(err, &opusErr) {
			code = int(opusErr)
		}
		return nil, &pipeline.EncodeError{Code: code, Err: err}
	}

	packet := make([]byte, n)
	copy(packet, e.out[:n])
	return packet, nil
}

var _ pipeline.Encoder = (*Encoder)(nil)
