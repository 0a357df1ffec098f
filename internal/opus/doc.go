// Package opus encodes PCM frames with libopus and moves the resulting
// packets between containers and sinks.
//
// The native storage format is a sequence of length-prefixed packets
// ([uint16 LE length][opus bytes]) with no header or metadata. WriteOgg and
// ReadOggPackets handle Ogg Opus files. StreamToVoice feeds packets to a
// voice connection's send channel.
package opus
