package opus_test

import (
	"errors"
	"testing"

	"github.com/glizzus/pcmopus/internal/opus"
	"github.com/glizzus/pcmopus/internal/pipeline"
)

func newTestEncoder(t *testing.T, sampleRate, channels, samplesPerFrame int) *opus.Encoder {
	t.Helper()
	enc, err := opus.NewEncoder(opus.EncoderConfig{
		SampleRate:      sampleRate,
		Channels:        channels,
		SamplesPerFrame: samplesPerFrame,
		MaxPacketSize:   4000,
		Bitrate:         64000,
		Complexity:      10,
		Application:     "audio",
	})
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	return enc
}

func TestEncodeRamp(t *testing.T) {
	enc := newTestEncoder(t, 48000, 2, 960)

	pcm := make([]int16, 1920)
	for i := range pcm {
		pcm[i] = int16(i * 10)
	}

	encoded, err := enc.Encode(pcm)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(encoded) == 0 {
		t.Fatal("expected non-empty encoded output")
	}
	if len(encoded) >= len(pcm)*2 {
		t.Errorf("expected compression, but encoded size %d >= PCM size %d", len(encoded), len(pcm)*2)
	}
}

func TestEncodeSilence(t *testing.T) {
	enc := newTestEncoder(t, 48000, 2, 960)

	encoded, err := enc.Encode(make([]int16, 1920))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(encoded) == 0 {
		t.Fatal("expected non-empty encoded output even for silence")
	}
}

func TestEncodeReturnsFreshSlices(t *testing.T) {
	enc := newTestEncoder(t, 48000, 1, 480)

	loud := make([]int16, 480)
	for i := range loud {
		if i%2 == 0 {
			loud[i] = 32767
		} else {
			loud[i] = -32768
		}
	}

	first, err := enc.Encode(loud)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	snapshot := append([]byte(nil), first...)

	if _, err := enc.Encode(make([]int16, 480)); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(first) != string(snapshot) {
		t.Error("second Encode overwrote the packet returned by the first")
	}
}

func TestEncodeWrongFrameLength(t *testing.T) {
	enc := newTestEncoder(t, 48000, 2, 960)

	_, err := enc.Encode(make([]int16, 100))
	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("Encode() error = %v, want *pipeline.EncodeError", err)
	}
	if encErr.Code != opus.CodeBadFrame {
		t.Errorf("Code = %d, want %d", encErr.Code, opus.CodeBadFrame)
	}
}

func TestNewEncoderInvalid(t *testing.T) {
	table := []struct {
		name string
		cfg  opus.EncoderConfig
	}{
		{name: "44.1k", cfg: opus.EncoderConfig{SampleRate: 44100, Channels: 2, SamplesPerFrame: 960, MaxPacketSize: 4000}},
		{name: "five channels", cfg: opus.EncoderConfig{SampleRate: 48000, Channels: 5, SamplesPerFrame: 960, MaxPacketSize: 4000}},
		{name: "odd frame length", cfg: opus.EncoderConfig{SampleRate: 48000, Channels: 2, SamplesPerFrame: 1000, MaxPacketSize: 4000}},
		{name: "unknown application", cfg: opus.EncoderConfig{SampleRate: 48000, Channels: 2, SamplesPerFrame: 960, MaxPacketSize: 4000, Application: "music"}},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := opus.NewEncoder(tc.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	table := []struct {
		name            string
		sampleRate      int
		channels        int
		samplesPerFrame int
		field           string
	}{
		{name: "20 ms stereo at 48k", sampleRate: 48000, channels: 2, samplesPerFrame: 960},
		{name: "10 ms mono at 16k", sampleRate: 16000, channels: 1, samplesPerFrame: 160},
		{name: "2.5 ms at 8k", sampleRate: 8000, channels: 1, samplesPerFrame: 20},
		{name: "44.1k", sampleRate: 44100, channels: 2, samplesPerFrame: 1024, field: "SampleRate"},
		{name: "six channels", sampleRate: 48000, channels: 6, samplesPerFrame: 960, field: "Channels"},
		{name: "1000 samples", sampleRate: 48000, channels: 2, samplesPerFrame: 1000, field: "SamplesPerFrame"},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			err := opus.ValidateFormat(tc.sampleRate, tc.channels, tc.samplesPerFrame)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("ValidateFormat() returned error: %v", err)
				}
				return
			}
			var cfgErr *pipeline.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tc.field {
				t.Fatalf("ValidateFormat() error = %v, want ConfigError on %s", err, tc.field)
			}
		})
	}
}

func TestEncoderDrivesPipeline(t *testing.T) {
	cfg := pipeline.DefaultConfig
	enc := newTestEncoder(t, cfg.SampleRate, cfg.Channels, cfg.SamplesPerFrame)

	// Half a second of a ramp, plus a partial frame.
	samples := make([]int16, 25*cfg.FrameSize()+300)
	for i := range samples {
		samples[i] = int16((i * 37) % 20000)
	}

	res, err := pipeline.Run(t.Context(), cfg, samples, enc)
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if res.Summary.PacketCount != 26 {
		t.Errorf("PacketCount = %d, want 26", res.Summary.PacketCount)
	}
	total := 0
	for _, n := range res.Packets.Lengths {
		if n <= 0 || n > cfg.MaxPacketSize {
			t.Errorf("packet length %d outside 1..%d", n, cfg.MaxPacketSize)
		}
		total += n
	}
	if total != res.Summary.TotalBytes {
		t.Errorf("TotalBytes = %d, lengths sum to %d", res.Summary.TotalBytes, total)
	}
}
