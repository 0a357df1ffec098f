// Package packet accumulates encoded packets into one contiguous buffer
// with a length index.
package packet

import (
	"fmt"
	"io"
	"iter"
)

// IllegalStateError is returned when an operation is attempted in a state
// that does not allow it, such as appending to a finalized Collector.
type IllegalStateError struct {
	Op     string
	Reason string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("illegal state for %s: %s", e.Op, e.Reason)
}

var _ error = (*IllegalStateError)(nil)

// PacketTooLargeError is returned when a packet exceeds the configured
// maximum packet size.
type PacketTooLargeError struct {
	Index int
	Size  int
	Max   int
}

func (e *PacketTooLargeError) Error() string {
	return fmt.Sprintf("packet %d is %d bytes, exceeding the %d byte maximum", e.Index, e.Size, e.Max)
}

var _ error = (*PacketTooLargeError)(nil)

// Packets is the finalized, ordered output of a Collector.
type Packets struct {
	Data       []byte
	Lengths    []int
	TotalBytes int

	offsets []int
}

// Len returns the number of packets.
func (p Packets) Len() int {
	return len(p.Lengths)
}

// Packet returns the i-th packet as a sub-slice of Data.
func (p Packets) Packet(i int) []byte {
	start := p.offset(i)
	end := start + p.Lengths[i]
	return p.Data[start:end:end]
}

// All iterates over the packets in append order.
func (p Packets) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		start := 0
		for i, n := range p.Lengths {
			end := start + n
			if !yield(i, p.Data[start:end:end]) {
				return
			}
			start = end
		}
	}
}

func (p Packets) offset(i int) int {
	if p.offsets != nil {
		return p.offsets[i]
	}
	start := 0
	for _, n := range p.Lengths[:i] {
		start += n
	}
	return start
}

// Collector records packets in call order. It is not safe for concurrent use.
type Collector struct {
	buf           []byte
	lengths       []int
	offsets       []int
	maxPacketSize int
	finalized     bool
}

// NewCollector returns a Collector that rejects packets larger than
// maxPacketSize. expectedPackets is only a capacity hint.
func NewCollector(maxPacketSize, expectedPackets int) *Collector {
	if expectedPackets < 0 {
		expectedPackets = 0
	}
	return &Collector{
		lengths:       make([]int, 0, expectedPackets),
		offsets:       make([]int, 0, expectedPackets),
		maxPacketSize: maxPacketSize,
	}
}

// Append copies p onto the end of the buffer.
func (c *Collector) Append(p []byte) error {
	if c.finalized {
		return &IllegalStateError{Op: "Append", Reason: "collector already finalized"}
	}
	if len(p) > c.maxPacketSize {
		return &PacketTooLargeError{Index: len(c.lengths), Size: len(p), Max: c.maxPacketSize}
	}

	c.grow(len(p))
	c.offsets = append(c.offsets, len(c.buf))
	c.buf = append(c.buf, p...)
	c.lengths = append(c.lengths, len(p))
	return nil
}

// grow doubles the backing buffer until n more bytes fit.
func (c *Collector) grow(n int) {
	need := len(c.buf) + n
	if need <= cap(c.buf) {
		return
	}
	newCap := max(cap(c.buf)*2, 256)
	for newCap < need {
		newCap *= 2
	}
	buf := make([]byte, len(c.buf), newCap)
	copy(buf, c.buf)
	c.buf = buf
}

// Len is the number of packets appended so far.
func (c *Collector) Len() int {
	return len(c.lengths)
}

// Size is the number of packet bytes appended so far.
func (c *Collector) Size() int {
	return len(c.buf)
}

// Finalize hands the collected packets to the caller. It may be called once;
// the Collector keeps no reference to the returned data.
func (c *Collector) Finalize() (Packets, error) {
	if c.finalized {
		return Packets{}, &IllegalStateError{Op: "Finalize", Reason: "collector already finalized"}
	}
	c.finalized = true

	p := Packets{
		Data:       c.buf,
		Lengths:    c.lengths,
		TotalBytes: len(c.buf),
		offsets:    c.offsets,
	}
	c.buf, c.lengths, c.offsets = nil, nil, nil
	return p, nil
}

// Collect appends every packet in ps to a fresh Collector and finalizes it.
func Collect(maxPacketSize int, ps [][]byte) (Packets, error) {
	c := NewCollector(maxPacketSize, len(ps))
	for _, p := range ps {
		if err := c.Append(p); err != nil {
			return Packets{}, err
		}
	}
	return c.Finalize()
}

// Reader returns a sequential reader over the packets. ReadFrame returns
// io.EOF after the last packet.
func (p Packets) Reader() *Reader {
	return &Reader{packets: p}
}

// Reader reads packets one at a time in order.
type Reader struct {
	packets Packets
	next    int
	offset  int
}

// ReadFrame returns the next packet.
func (r *Reader) ReadFrame() ([]byte, error) {
	if r.next >= r.packets.Len() {
		return nil, io.EOF
	}
	n := r.packets.Lengths[r.next]
	end := r.offset + n
	p := r.packets.Data[r.offset:end:end]
	r.next++
	r.offset = end
	return p, nil
}
