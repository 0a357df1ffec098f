package opus

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/glizzus/pcmopus/internal/packet"
)

// FrameWriter writes length-prefixed Opus packets to an io.Writer.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter returns a new FrameWriter that writes to w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes one packet with its uint16 little-endian length prefix.
func (f *FrameWriter) WriteFrame(frame []byte) error {
	if len(frame) > 1<<16-1 {
		return fmt.Errorf("packet of %d bytes does not fit a uint16 length prefix", len(frame))
	}

	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(frame)))
	if _, err := f.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := f.w.Write(frame)
	return err
}

// WritePackets writes every packet in order.
func (f *FrameWriter) WritePackets(packets packet.Packets) error {
	for i, p := range packets.All() {
		if err := f.WriteFrame(p); err != nil {
			return fmt.Errorf("failed to write packet %d: %w", i, err)
		}
	}
	return nil
}

// EncodedSize is the number of bytes WritePackets produces for packets.
func EncodedSize(packets packet.Packets) int64 {
	return int64(packets.TotalBytes + 2*packets.Len())
}
