// Package transport delivers encoded packets over the network as RTP.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/glizzus/pcmopus/internal/packet"
	"github.com/pion/rtp"
)

// DefaultPayloadType is the dynamic payload type used for Opus.
const DefaultPayloadType = 120

// RTPClockRate is the Opus RTP clock; timestamps always advance at 48 kHz.
const RTPClockRate = 48000

// Packetizer wraps consecutive Opus packets in RTP headers.
type Packetizer struct {
	SSRC        uint32
	PayloadType uint8
	Sequence    uint16
	Timestamp   uint32
}

// NewPacketizer returns a Packetizer with a random starting sequence
// number and timestamp.
func NewPacketizer(ssrc uint32) *Packetizer {
	return &Packetizer{
		SSRC:        ssrc,
		PayloadType: DefaultPayloadType,
		Sequence:    uint16(rand.Uint32()),
		Timestamp:   rand.Uint32(),
	}
}

// Packetize returns the RTP packet for payload and advances the sequence
// number by one and the timestamp by samples (at RTPClockRate).
func (p *Packetizer) Packetize(payload []byte, samples uint32) *rtp.Packet {
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    p.PayloadType,
			SequenceNumber: p.Sequence,
			Timestamp:      p.Timestamp,
			SSRC:           p.SSRC,
		},
		Payload: payload,
	}
	p.Sequence++
	p.Timestamp += samples
	return pkt
}

// Sender paces RTP packets onto a connection at real-time speed.
type Sender struct {
	Packetizer *Packetizer
	// FrameDuration is the audio covered by each packet.
	FrameDuration time.Duration
	Logger        *slog.Logger
}

// Send writes every packet to w in order, one per FrameDuration. It returns
// the number of packets written.
func (s *Sender) Send(ctx context.Context, w io.Writer, packets packet.Packets) (int, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	samples := uint32(s.FrameDuration * RTPClockRate / time.Second)

	ticker := time.NewTicker(s.FrameDuration)
	defer ticker.Stop()

	sent := 0
	for i, payload := range packets.All() {
		if i > 0 {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return sent, ctx.Err()
			}
		}

		raw, err := s.Packetizer.Packetize(payload, samples).Marshal()
		if err != nil {
			return sent, fmt.Errorf("failed to marshal rtp packet %d: %w", i, err)
		}
		if _, err := w.Write(raw); err != nil {
			return sent, fmt.Errorf("failed to send rtp packet %d: %w", i, err)
		}
		sent++
	}

	logger.InfoContext(ctx, "audio stream end",
		"packets", sent,
		"duration", time.Duration(sent)*s.FrameDuration,
	)
	return sent, nil
}
