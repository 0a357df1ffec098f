package pipeline

import (
	"fmt"
	"time"

	"github.com/glizzus/pcmopus/internal/packet"
)

// Summary aggregates a run for reporting.
type Summary struct {
	PacketCount       int
	TotalBytes        int
	Frames            int
	SampleCount       int
	PaddedSampleCount int
	Duration          time.Duration
	MinPacketBytes    int
	MaxPacketBytes    int
	MeanPacketBytes   float64
	// Bitrate is the mean bitrate in bits per second.
	Bitrate float64
}

// Summarize computes a Summary for packets produced from sampleCount
// interleaved samples split into frames frames.
func Summarize(cfg Config, packets packet.Packets, frames, sampleCount int) Summary {
	s := Summary{
		PacketCount:       packets.Len(),
		TotalBytes:        packets.TotalBytes,
		Frames:            frames,
		SampleCount:       sampleCount,
		PaddedSampleCount: frames * cfg.FrameSize(),
		Duration:          time.Duration(frames) * cfg.FrameDuration(),
	}

	for i, n := range packets.Lengths {
		if i == 0 || n < s.MinPacketBytes {
			s.MinPacketBytes = n
		}
		if n > s.MaxPacketBytes {
			s.MaxPacketBytes = n
		}
	}
	if s.PacketCount > 0 {
		s.MeanPacketBytes = float64(s.TotalBytes) / float64(s.PacketCount)
	}
	if s.Duration > 0 {
		s.Bitrate = float64(s.TotalBytes*8) * float64(time.Second) / float64(s.Duration)
	}
	return s
}

// PaddingSamples is the number of zero samples added to the last frame.
func (s Summary) PaddingSamples() int {
	return s.PaddedSampleCount - s.SampleCount
}

// String renders the report printed after a successful encode.
func (s Summary) String() string {
	return fmt.Sprintf("Final packet count: %d\nTotal compressed bytes: %d\n", s.PacketCount, s.TotalBytes)
}
