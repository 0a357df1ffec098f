package command

import (
	"fmt"
	"math/rand/v2"
	"net"

	"github.com/glizzus/pcmopus/internal/transport"
	"github.com/urfave/cli/v2"
)

func (a *app) rtpCommand() *cli.Command {
	return &cli.Command{
		Name:      "rtp",
		Usage:     "Encode a file and stream it as RTP over UDP in real time",
		ArgsUsage: "<file>",
		Flags: append(a.sourceFlags(),
			&cli.StringFlag{
				Name:     "addr",
				Usage:    "destination `HOST:PORT`",
				Required: true,
			},
			&cli.UintFlag{
				Name:  "payload-type",
				Usage: "RTP payload type",
				Value: transport.DefaultPayloadType,
			},
		),
		Action: func(c *cli.Context) error {
			path, err := fileArg(c)
			if err != nil {
				return err
			}

			res, cfg, err := a.encode(c, path)
			if err != nil {
				return encodeFailed(err)
			}

			conn, err := net.Dial("udp", c.String("addr"))
			if err != nil {
				return cli.Exit("Failed to open UDP socket: "+err.Error(), 1)
			}
			defer conn.Close()

			packetizer := transport.NewPacketizer(rand.Uint32())
			packetizer.PayloadType = uint8(c.Uint("payload-type"))
			sender := &transport.Sender{
				Packetizer:    packetizer,
				FrameDuration: cfg.FrameDuration(),
				Logger:        a.logger,
			}

			sent, err := sender.Send(c.Context, conn, res.Packets)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Streaming stopped after %d packets: %v", sent, err), 1)
			}
			fmt.Fprintf(c.App.Writer, "Sent %d packets to %s\n", sent, c.String("addr"))
			return nil
		},
	}
}
