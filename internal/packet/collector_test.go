package packet_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/glizzus/pcmopus/internal/packet"
	"github.com/google/go-cmp/cmp"
)

func payloads(n int) [][]byte {
	ps := make([][]byte, n)
	for i := range ps {
		// Varying sizes, including zero, force several buffer growths.
		p := bytes.Repeat([]byte{byte(i)}, (i*37)%300)
		ps[i] = p
	}
	return ps
}

func TestCollectorPreservesOrder(t *testing.T) {
	ps := payloads(200)
	c := packet.NewCollector(4000, 0)
	for i, p := range ps {
		if err := c.Append(p); err != nil {
			t.Fatalf("Append(%d) returned error: %v", i, err)
		}
	}
	if c.Len() != len(ps) {
		t.Errorf("Len() = %d, want %d", c.Len(), len(ps))
	}

	got, err := c.Finalize()
	if err != nil {
		t.Fatalf("Finalize() returned error: %v", err)
	}
	if got.Len() != len(ps) {
		t.Fatalf("got %d packets, want %d", got.Len(), len(ps))
	}

	total := 0
	for i, p := range ps {
		if got.Lengths[i] != len(p) {
			t.Errorf("Lengths[%d] = %d, want %d", i, got.Lengths[i], len(p))
		}
		total += len(p)
	}
	if got.TotalBytes != total || len(got.Data) != total {
		t.Errorf("TotalBytes = %d, len(Data) = %d, want %d", got.TotalBytes, len(got.Data), total)
	}
}

func TestCollectorRoundTrip(t *testing.T) {
	ps := payloads(64)
	got, err := packet.Collect(4000, ps)
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}

	// Slicing Data by Lengths must reproduce each payload with no gaps.
	var sliced [][]byte
	offset := 0
	for _, n := range got.Lengths {
		sliced = append(sliced, got.Data[offset:offset+n])
		offset += n
	}
	if offset != len(got.Data) {
		t.Errorf("lengths cover %d bytes, data holds %d", offset, len(got.Data))
	}
	if diff := cmp.Diff(ps, sliced); diff != "" {
		t.Errorf("sliced packets mismatch (-want +got):\n%s", diff)
	}

	var ranged [][]byte
	for i, p := range got.All() {
		if !bytes.Equal(p, got.Packet(i)) {
			t.Errorf("All() packet %d differs from Packet(%d)", i, i)
		}
		ranged = append(ranged, p)
	}
	if diff := cmp.Diff(ps, ranged); diff != "" {
		t.Errorf("ranged packets mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectorCopiesInput(t *testing.T) {
	c := packet.NewCollector(16, 1)
	p := []byte{1, 2, 3}
	if err := c.Append(p); err != nil {
		t.Fatalf("Append() returned error: %v", err)
	}
	p[0] = 99

	got, err := c.Finalize()
	if err != nil {
		t.Fatalf("Finalize() returned error: %v", err)
	}
	if !bytes.Equal(got.Packet(0), []byte{1, 2, 3}) {
		t.Errorf("Packet(0) = %v, want [1 2 3]", got.Packet(0))
	}
}

func TestCollectorAppendAfterFinalize(t *testing.T) {
	table := []struct {
		name    string
		payload []byte
	}{
		{name: "nil", payload: nil},
		{name: "small", payload: []byte{1}},
		{name: "oversized", payload: make([]byte, 5000)},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			c := packet.NewCollector(4000, 0)
			if _, err := c.Finalize(); err != nil {
				t.Fatalf("Finalize() returned error: %v", err)
			}
			err := c.Append(tc.payload)
			var illegal *packet.IllegalStateError
			if !errors.As(err, &illegal) {
				t.Fatalf("Append() after Finalize error = %v, want *packet.IllegalStateError", err)
			}
		})
	}
}

func TestCollectorFinalizeTwice(t *testing.T) {
	c := packet.NewCollector(4000, 0)
	if _, err := c.Finalize(); err != nil {
		t.Fatalf("first Finalize() returned error: %v", err)
	}
	_, err := c.Finalize()
	var illegal *packet.IllegalStateError
	if !errors.As(err, &illegal) {
		t.Fatalf("second Finalize() error = %v, want *packet.IllegalStateError", err)
	}
}

func TestCollectorPacketTooLarge(t *testing.T) {
	c := packet.NewCollector(10, 0)
	if err := c.Append(make([]byte, 10)); err != nil {
		t.Fatalf("Append() at the limit returned error: %v", err)
	}

	err := c.Append(make([]byte, 11))
	var tooLarge *packet.PacketTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Append() error = %v, want *packet.PacketTooLargeError", err)
	}
	want := packet.PacketTooLargeError{Index: 1, Size: 11, Max: 10}
	if diff := cmp.Diff(want, *tooLarge); diff != "" {
		t.Errorf("error mismatch (-want +got):\n%s", diff)
	}
	if c.Len() != 1 {
		t.Errorf("rejected packet was recorded: Len() = %d", c.Len())
	}
}

func TestPacketsReader(t *testing.T) {
	ps := payloads(20)
	got, err := packet.Collect(4000, ps)
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}

	r := got.Reader()
	var read [][]byte
	for {
		p, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame() returned error: %v", err)
		}
		read = append(read, p)
	}
	if diff := cmp.Diff(ps, read); diff != "" {
		t.Errorf("read packets mismatch (-want +got):\n%s", diff)
	}
}
