// Package pipeline drives PCM frames through an Encoder and collects the
// resulting packets in frame order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/glizzus/pcmopus/internal/frame"
	"github.com/glizzus/pcmopus/internal/packet"
)

// Encoder turns one frame of interleaved samples into one packet.
type Encoder interface {
	Encode(frame []int16) ([]byte, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(frame []int16) ([]byte, error)

func (f EncoderFunc) Encode(frame []int16) ([]byte, error) {
	return f(frame)
}

// State is the lifecycle position of a Pipeline.
type State int

const (
	Idle State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the output of a completed run. The caller owns it.
type Result struct {
	Packets packet.Packets
	Summary Summary
	// Skipped lists frames dropped under SkipOnError.
	Skipped []int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for progress and skipped frames.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline encodes exactly one sample buffer.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	state  State
}

// New validates cfg and returns an idle Pipeline.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the validated configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// State reports where the Pipeline is in its lifecycle.
func (p *Pipeline) State() State {
	return p.state
}

// Run frames samples, encodes each frame in order and returns the collected
// packets. Any failure discards everything collected so far.
// ctx is checked between frames.
func (p *Pipeline) Run(ctx context.Context, samples []int16, enc Encoder) (*Result, error) {
	if p.state != Idle {
		return nil, &packet.IllegalStateError{Op: "Run", Reason: "pipeline is " + p.state.String()}
	}
	p.state = Running

	res, err := p.run(ctx, samples, enc)
	if err != nil {
		p.state = Aborted
		return nil, err
	}
	p.state = Completed
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, samples []int16, enc Encoder) (*Result, error) {
	chunker, err := frame.NewChunker(samples, p.cfg.Channels, p.cfg.SamplesPerFrame)
	if err != nil {
		return nil, err
	}

	collector := packet.NewCollector(p.cfg.MaxPacketSize, chunker.Len())
	var skipped []int

	p.logger.DebugContext(ctx, "encoding started",
		"samples", len(samples),
		"frames", chunker.Len(),
		"frameSize", chunker.FrameSize(),
	)

	for {
		f, err := chunker.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, &EncodeFailureError{FrameIndex: f.Index, Cause: err}
		}

		encoded, err := enc.Encode(f.Samples)
		if err != nil {
			if p.cfg.FailurePolicy == SkipOnError {
				p.logger.WarnContext(ctx, "skipping frame that failed to encode",
					"frameIndex", f.Index,
					slog.Any("error", err),
				)
				skipped = append(skipped, f.Index)
				continue
			}
			return nil, &EncodeFailureError{FrameIndex: f.Index, Cause: err}
		}

		if err := collector.Append(encoded); err != nil {
			return nil, &EncodeFailureError{FrameIndex: f.Index, Cause: err}
		}
	}

	packets, err := collector.Finalize()
	if err != nil {
		return nil, err
	}

	summary := Summarize(p.cfg, packets, chunker.Len(), len(samples))
	p.logger.InfoContext(ctx, "encoding finished",
		"packets", summary.PacketCount,
		"totalBytes", summary.TotalBytes,
		"skipped", len(skipped),
		"duration", summary.Duration,
	)

	return &Result{
		Packets: packets,
		Summary: summary,
		Skipped: skipped,
	}, nil
}

// Run is shorthand for building a Pipeline from cfg and running it once.
func Run(ctx context.Context, cfg Config, samples []int16, enc Encoder, opts ...Option) (*Result, error) {
	p, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, samples, enc)
}
