// Package pcm loads signed 16-bit interleaved samples from raw PCM files,
// WAV files, or anything ffmpeg can decode.
package pcm

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrTruncatedSample means the input ended in the middle of a 16-bit sample.
var ErrTruncatedSample = errors.New("input ends with a partial 16-bit sample")

// FileReadError wraps a failure to produce samples from a file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

var _ error = (*FileReadError)(nil)

// Format describes interleaved sample data.
type Format struct {
	SampleRate int
	Channels   int
}

// ReadFile reads a headerless signed 16-bit little-endian PCM file.
func ReadFile(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	defer f.Close()

	var sizeHint int64
	if info, err := f.Stat(); err == nil {
		sizeHint = info.Size()
	}

	samples, err := decode(bufio.NewReader(f), sizeHint)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	return samples, nil
}

// Decode reads signed 16-bit little-endian samples from r until EOF.
func Decode(r io.Reader) ([]int16, error) {
	return decode(r, 0)
}

func decode(r io.Reader, sizeHint int64) ([]int16, error) {
	samples := make([]int16, 0, sizeHint/2)
	var buf [4096]byte
	carry := 0
	for {
		n, err := r.Read(buf[carry:])
		n += carry
		even := n &^ 1
		for i := 0; i < even; i += 2 {
			samples = append(samples, int16(binary.LittleEndian.Uint16(buf[i:])))
		}
		carry = n - even
		if carry == 1 {
			buf[0] = buf[even]
		}

		if errors.Is(err, io.EOF) {
			if carry != 0 {
				return nil, ErrTruncatedSample
			}
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Encode writes samples as signed 16-bit little-endian PCM.
func Encode(w io.Writer, samples []int16) error {
	return binary.Write(w, binary.LittleEndian, samples)
}
