// Package frame splits interleaved 16-bit PCM into fixed-size frames.
//
// A frame holds channels*samplesPerFrame samples. Every frame except
// possibly the last is a view into the caller's buffer; when the buffer does
// not divide evenly, the last frame is a fresh slice padded with zeros.
package frame
