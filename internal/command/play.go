package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/pcmopus/internal/config"
	"github.com/glizzus/pcmopus/internal/opus"
	"github.com/glizzus/pcmopus/internal/pipeline"
	"github.com/glizzus/pcmopus/internal/schedule"
	"github.com/glizzus/pcmopus/internal/voice"
	"github.com/urfave/cli/v2"
)

// checkDiscordFormat rejects configurations Discord voice cannot play.
func checkDiscordFormat(sampleRate, channels, samplesPerFrame int) error {
	if sampleRate != 48000 || channels != 2 || samplesPerFrame != 960 {
		return fmt.Errorf("discord voice needs 48000 Hz stereo 960 sample frames, got %d Hz %d channel %d sample frames",
			sampleRate, channels, samplesPerFrame)
	}
	return nil
}

// sourceFunc opens a fresh packet source for one playback.
type sourceFunc func(ctx context.Context) (opus.PacketSource, io.Closer, error)

func (a *app) playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play a file or a stored asset into a Discord voice channel",
		ArgsUsage: "<file>",
		Flags: append(a.sourceFlags(),
			&cli.StringFlag{
				Name:    "guild",
				Usage:   "guild to play in",
				EnvVars: []string{"DISCORD_GUILD_ID"},
			},
			&cli.StringFlag{
				Name:    "channel",
				Usage:   "voice channel; defaults to the busiest one",
				EnvVars: []string{"DISCORD_CHANNEL_ID"},
			},
			&cli.StringFlag{
				Name:  "asset",
				Usage: "play a stored asset by `ID` instead of encoding a file",
			},
			&cli.StringFlag{
				Name:  "cron",
				Usage: "play on this cron schedule instead of immediately",
			},
			&cli.IntFlag{
				Name:  "repeat",
				Usage: "number of scheduled plays when --cron is set",
				Value: 1,
			},
		),
		Action: a.playAction,
	}
}

func (a *app) playAction(c *cli.Context) error {
	guildID := c.String("guild")
	if guildID == "" {
		return cli.Exit("Please provide a guild ID using --guild", 1)
	}
	cron := c.String("cron")
	if cron != "" {
		if _, err := schedule.NextRunTimes(cron, 1); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	var open sourceFunc
	if id := c.String("asset"); id != "" {
		backend, release, err := a.backend(c.Context)
		if err != nil {
			return cli.Exit("Failed to open storage: "+err.Error(), 1)
		}
		defer release()

		asset, err := backend.Catalog.Get(c.Context, id)
		if err != nil {
			return cli.Exit("Failed to find asset: "+err.Error(), 1)
		}
		if err := checkDiscordFormat(asset.SampleRate, asset.Channels, asset.SamplesPerFrame); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		open = func(ctx context.Context) (opus.PacketSource, io.Closer, error) {
			rc, err := backend.Blobs.Get(ctx, asset.ObjectKey)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to download asset: %w", err)
			}
			return opus.NewFrameReader(rc), rc, nil
		}
	} else {
		path, err := fileArg(c)
		if err != nil {
			return err
		}
		res, cfg, err := a.encode(c, path)
		if err != nil {
			return encodeFailed(err)
		}
		if err := checkDiscordFormat(cfg.SampleRate, cfg.Channels, cfg.SamplesPerFrame); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		open = packetsSource(res)
	}

	discordConfig, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return cli.Exit("Failed to load discord config: "+err.Error(), 1)
	}
	session, err := voice.NewSession(discordConfig.Token)
	if err != nil {
		return cli.Exit("Failed to create session: "+err.Error(), 1)
	}
	if err := session.Open(); err != nil {
		return cli.Exit("Failed to open session: "+err.Error(), 1)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	play := func(ctx context.Context) error {
		return a.playOnce(ctx, c.App.Writer, session, guildID, c.String("channel"), open)
	}
	if cron == "" {
		if err := play(c.Context); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}

	err = schedule.Every(c.Context, cron, c.Int("repeat"), func(ctx context.Context, runAt time.Time) error {
		a.logger.Info("scheduled playback", "runAt", runAt)
		if err := play(ctx); err != nil {
			// A failed play should not cancel the rest of the schedule.
			a.logger.Error("scheduled playback failed", "runAt", runAt, "error", err)
		}
		return nil
	})
	if err != nil {
		return cli.Exit("Schedule stopped: "+err.Error(), 1)
	}
	return nil
}

func packetsSource(res *pipeline.Result) sourceFunc {
	return func(context.Context) (opus.PacketSource, io.Closer, error) {
		return res.Packets.Reader(), io.NopCloser(nil), nil
	}
}

func (a *app) playOnce(ctx context.Context, w io.Writer, session *discordgo.Session, guildID, channelID string, open sourceFunc) error {
	// The busiest channel is picked per play when none is given.
	channelID, err := voice.ResolveChannel(session, guildID, channelID)
	if err != nil {
		return err
	}

	source, closer, err := open(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	sent, err := voice.Play(ctx, session, guildID, channelID, source)
	if err != nil {
		return fmt.Errorf("playback stopped after %d packets: %w", sent, err)
	}
	fmt.Fprintf(w, "Played %d packets\n", sent)
	return nil
}
