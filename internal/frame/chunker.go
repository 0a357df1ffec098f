package frame

import (
	"fmt"
	"io"
	"iter"

	"github.com/glizzus/pcmopus/internal/generator"
)

// Frame is one fixed-length slice of interleaved samples.
// Samples must not be modified; it may alias the buffer given to NewChunker.
type Frame struct {
	Index   int
	Samples []int16
	// Padding is the number of trailing zero samples that were synthesized.
	Padding int
}

// Real returns the number of samples taken from the source buffer.
func (f Frame) Real() int {
	return len(f.Samples) - f.Padding
}

// InvalidInputError is returned when a sample buffer cannot be framed,
// usually because it holds a partial interleaved sample.
type InvalidInputError struct {
	SampleCount int
	Channels    int
	Reason      string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return "invalid sample buffer: " + e.Reason
	}
	return fmt.Sprintf("invalid sample buffer: %d samples is not a multiple of %d channels", e.SampleCount, e.Channels)
}

var _ error = (*InvalidInputError)(nil)

// Chunker lazily produces the frames covering a sample buffer.
type Chunker struct {
	samples   []int16
	channels  int
	frameSize int
	next      int
}

// NewChunker validates samples against the channel count and returns a
// Chunker positioned at the first frame.
func NewChunker(samples []int16, channels, samplesPerFrame int) (*Chunker, error) {
	if channels <= 0 {
		return nil, &InvalidInputError{SampleCount: len(samples), Channels: channels, Reason: "channel count must be positive"}
	}
	if samplesPerFrame <= 0 {
		return nil, &InvalidInputError{SampleCount: len(samples), Channels: channels, Reason: "samples per frame must be positive"}
	}
	if len(samples)%channels != 0 {
		return nil, &InvalidInputError{SampleCount: len(samples), Channels: channels}
	}

	return &Chunker{
		samples:   samples,
		channels:  channels,
		frameSize: channels * samplesPerFrame,
	}, nil
}

// FrameSize is the number of interleaved samples in every frame.
func (c *Chunker) FrameSize() int {
	return c.frameSize
}

// Len is the total number of frames, ceil(len(samples) / FrameSize()).
func (c *Chunker) Len() int {
	return (len(c.samples) + c.frameSize - 1) / c.frameSize
}

// PaddedSampleCount is the smallest multiple of FrameSize() that is at
// least the source sample count.
func (c *Chunker) PaddedSampleCount() int {
	return c.Len() * c.frameSize
}

// Next returns the next frame, or io.EOF once every frame has been produced.
func (c *Chunker) Next() (Frame, error) {
	if c.next >= c.Len() {
		return Frame{}, io.EOF
	}
	f := c.frameAt(c.next)
	c.next++
	return f, nil
}

// Reset rewinds the Chunker to the first frame.
func (c *Chunker) Reset() {
	c.next = 0
}

// All iterates over every frame from the beginning. It does not move the
// position used by Next.
func (c *Chunker) All() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for i := range c.Len() {
			if !yield(c.frameAt(i)) {
				return
			}
		}
	}
}

func (c *Chunker) frameAt(i int) Frame {
	start := i * c.frameSize
	end := start + c.frameSize
	if end <= len(c.samples) {
		return Frame{Index: i, Samples: c.samples[start:end:end]}
	}

	padded := make([]int16, c.frameSize)
	n := copy(padded, c.samples[start:])
	return Frame{Index: i, Samples: padded, Padding: c.frameSize - n}
}

var _ generator.Generator[Frame] = (*Chunker)(nil)
