package opus

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/glizzus/pcmopus/internal/packet"
)

// FrameReader reads length-prefixed Opus packets from an io.Reader.
type FrameReader struct {
	r io.Reader
}

// NewFrameReader returns a new FrameReader that reads from r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// ReadFrame reads and returns the next raw Opus packet.
// Returns io.EOF when there are no more packets.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var size uint16
	if err := binary.Read(f.r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}

	frame := make([]byte, size)
	if _, err := io.ReadFull(f.r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// ReadPackets reads every packet from r into a finalized packet set.
// A truncated trailing packet is an error.
func ReadPackets(r io.Reader) (packet.Packets, error) {
	fr := NewFrameReader(r)
	c := packet.NewCollector(1<<16-1, 0)
	for {
		frame, err := fr.ReadFrame()
		if errors.Is(err, io.EOF) {
			return c.Finalize()
		}
		if err != nil {
			return packet.Packets{}, err
		}
		if err := c.Append(frame); err != nil {
			return packet.Packets{}, err
		}
	}
}
