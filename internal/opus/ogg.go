package opus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/glizzus/pcmopus/internal/packet"
	"github.com/jonas747/ogg"
)

const (
	oggGranuleRate = 48000
	// DefaultPreSkip is the libopus encoder lookahead (6.5 ms) in 48 kHz samples.
	DefaultPreSkip = 312
	vendorString   = "pcmopus"
)

// OggOptions describes the stream written by WriteOgg.
type OggOptions struct {
	SampleRate      int
	Channels        int
	SamplesPerFrame int
	// SampleCount is the number of interleaved input samples before padding.
	// When set, the last granule position trims the padding off the end.
	SampleCount int
	Serial      uint32
	// PreSkip in 48 kHz samples. Zero means DefaultPreSkip.
	PreSkip int
}

func opusHead(opts OggOptions) []byte {
	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1
	head[9] = byte(opts.Channels)
	binary.LittleEndian.PutUint16(head[10:], uint16(opts.PreSkip))
	binary.LittleEndian.PutUint32(head[12:], uint32(opts.SampleRate))
	// Output gain and channel mapping family stay zero.
	return head
}

func opusTags() []byte {
	tags := make([]byte, 8+4+len(vendorString)+4)
	copy(tags, "OpusTags")
	binary.LittleEndian.PutUint32(tags[8:], uint32(len(vendorString)))
	copy(tags[12:], vendorString)
	return tags
}

// WriteOgg writes packets as an Ogg Opus stream, one packet per page.
func WriteOgg(w io.Writer, packets packet.Packets, opts OggOptions) error {
	if opts.SampleRate <= 0 || opts.Channels <= 0 || opts.SamplesPerFrame <= 0 {
		return fmt.Errorf("invalid ogg options: sample rate %d, channels %d, samples per frame %d", opts.SampleRate, opts.Channels, opts.SamplesPerFrame)
	}
	if opts.PreSkip == 0 {
		opts.PreSkip = DefaultPreSkip
	}

	pw := &pageWriter{w: w}
	enc := ogg.NewEncoder(opts.Serial, pw)
	if err := enc.EncodeBOS(0, opusHead(opts)); err != nil {
		return fmt.Errorf("failed to write OpusHead page: %w", err)
	}
	if err := enc.Encode(0, opusTags()); err != nil {
		return fmt.Errorf("failed to write OpusTags page: %w", err)
	}

	step := int64(opts.SamplesPerFrame) * oggGranuleRate / int64(opts.SampleRate)
	granule := int64(opts.PreSkip)
	last := packets.Len() - 1
	if last < 0 {
		if err := pw.flush(); err != nil {
			return err
		}
		return enc.EncodeEOS()
	}

	for i, p := range packets.All() {
		if len(p) > ogg.MaxPacketSize {
			return fmt.Errorf("packet %d is %d bytes, ogg pages hold at most %d", i, len(p), ogg.MaxPacketSize)
		}
		granule += step
		if i == last {
			granule = endGranule(granule, opts)
		}
		if err := enc.Encode(granule, p); err != nil {
			return fmt.Errorf("failed to write ogg page for packet %d: %w", i, err)
		}
	}
	return pw.endStream()
}

// pageWriter holds back the most recent page so the final audio page can
// carry the EOS flag. The ogg encoder only emits EOS as an extra empty page
// at granule zero.
type pageWriter struct {
	w    io.Writer
	held []byte
}

func (pw *pageWriter) Write(p []byte) (int, error) {
	if err := pw.flush(); err != nil {
		return 0, err
	}
	pw.held = append([]byte(nil), p...)
	return len(p), nil
}

func (pw *pageWriter) flush() error {
	if pw.held == nil {
		return nil
	}
	_, err := pw.w.Write(pw.held)
	pw.held = nil
	return err
}

func (pw *pageWriter) endStream() error {
	if len(pw.held) < ogg.HeaderSize {
		return pw.flush()
	}
	pw.held[5] |= ogg.EOS
	binary.LittleEndian.PutUint32(pw.held[22:], 0)
	binary.LittleEndian.PutUint32(pw.held[22:], oggChecksum(pw.held))
	return pw.flush()
}

var oggCRCTable = func() (table [256]uint32) {
	for i := range table {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}()

// oggChecksum is the page CRC from RFC 3533: polynomial 0x04c11db7, zero
// initial value, no reflection.
func oggChecksum(page []byte) uint32 {
	var crc uint32
	for _, b := range page {
		crc = crc<<8 ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}

// endGranule trims the zero padding of the last frame from the final
// granule position.
func endGranule(granule int64, opts OggOptions) int64 {
	if opts.SampleCount <= 0 {
		return granule
	}
	end := int64(opts.PreSkip) + int64(opts.SampleCount)*oggGranuleRate/int64(opts.SampleRate*opts.Channels)
	return min(end, granule)
}

// ReadOggPackets reads the audio packets of an Ogg Opus stream, skipping
// the OpusHead and OpusTags header packets.
func ReadOggPackets(r io.Reader) ([][]byte, error) {
	decoder := ogg.NewPacketDecoder(ogg.NewDecoder(r))

	var packets [][]byte
	// Skip the first 2 OGG metadata packets.
	skip := 2
	for {
		p, _, err := decoder.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return packets, nil
			}
			return nil, err
		}
		if skip > 0 {
			skip--
			continue
		}
		// An empty packet only terminates the stream.
		if len(p) == 0 {
			continue
		}
		packets = append(packets, append([]byte(nil), p...))
	}
}
