package opus

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrVoiceConnClosed = errors.New("voice connection send timeout")

// SendTimeout bounds how long StreamToVoice waits for the connection to
// accept a single packet.
var SendTimeout = time.Minute

// PacketSource yields packets in playback order and io.EOF at the end.
type PacketSource interface {
	ReadFrame() ([]byte, error)
}

// StreamToVoice reads Opus packets from source and sends them on send, the
// OpusSend channel of a voice connection. It blocks until all packets are
// sent or an error occurs. Returns the number of packets sent and nil on
// clean EOF.
func StreamToVoice(ctx context.Context, source PacketSource, send chan<- []byte) (int, error) {
	sent := 0
	for {
		frame, err := source.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return sent, nil
			}
			return sent, err
		}

		timer := time.NewTimer(SendTimeout)
		select {
		case send <- frame:
			timer.Stop()
			sent++
		case <-timer.C:
			return sent, ErrVoiceConnClosed
		case <-ctx.Done():
			timer.Stop()
			return sent, ctx.Err()
		}
	}
}
