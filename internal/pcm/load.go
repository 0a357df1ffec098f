package pcm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// ErrUnsupportedFormat is returned for WAV data that is not 16-bit PCM.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ReadWAV reads a 16-bit PCM WAV file.
func ReadWAV(path string) ([]int16, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Format{}, &FileReadError{Path: path, Err: err}
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, Format{}, &FileReadError{Path: path, Err: fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)}
	}
	if d.BitDepth != 16 {
		return nil, Format{}, &FileReadError{Path: path, Err: fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, d.BitDepth)}
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, Format{}, &FileReadError{Path: path, Err: err}
	}

	samples := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int16(s)
	}
	return samples, Format{SampleRate: int(d.SampleRate), Channels: int(d.NumChans)}, nil
}

// Transcode decodes any input ffmpeg understands into interleaved samples at
// the requested format.
func Transcode(ctx context.Context, ffmpegPath, path string, format Format) ([]int16, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffmpeg := exec.CommandContext(ctx, ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		"pipe:1",
	)

	var stderr bytes.Buffer
	ffmpeg.Stderr = &stderr
	ffmpeg.WaitDelay = time.Second

	stdout, err := ffmpeg.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("unable to pipe output of ffmpeg to stdout: %w", err)
	}
	if err := ffmpeg.Start(); err != nil {
		return nil, &FileReadError{Path: path, Err: fmt.Errorf("unable to start ffmpeg process: %w", err)}
	}

	samples, decodeErr := Decode(stdout)
	if decodeErr != nil {
		// ffmpeg may still be running with nobody reading its output.
		_ = ffmpeg.Process.Kill()
		_ = ffmpeg.Wait()
		return nil, &FileReadError{Path: path, Err: decodeErr}
	}
	waitErr := ffmpeg.Wait()
	if waitErr != nil {
		msg := strings.TrimSpace(stderr.String())
		return nil, &FileReadError{Path: path, Err: fmt.Errorf("ffmpeg failed: %w: %s", waitErr, msg)}
	}
	return samples, nil
}

// LoadOptions controls how Load turns a path into samples.
type LoadOptions struct {
	// Format the caller expects. WAV files must match it; ffmpeg resamples to it.
	Format Format
	// Transcode enables ffmpeg for extensions other than raw PCM and WAV.
	Transcode  bool
	FFmpegPath string
}

// Load reads samples from path, picking a reader by file extension:
// .pcm, .raw and .s16le are raw PCM, .wav is WAV, anything else goes through
// ffmpeg when opts.Transcode is set.
func Load(ctx context.Context, path string, opts LoadOptions) ([]int16, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		samples, format, err := ReadWAV(path)
		if err != nil {
			return nil, err
		}
		if format != opts.Format {
			return nil, &FileReadError{
				Path: path,
				Err:  fmt.Errorf("%w: file is %d Hz %d channel, expected %d Hz %d channel", ErrUnsupportedFormat, format.SampleRate, format.Channels, opts.Format.SampleRate, opts.Format.Channels),
			}
		}
		return samples, nil
	case ".pcm", ".raw", ".s16le", "":
		return ReadFile(path)
	default:
		if !opts.Transcode {
			// Without ffmpeg every other file is treated as raw PCM.
			return ReadFile(path)
		}
		return Transcode(ctx, opts.FFmpegPath, path, opts.Format)
	}
}
