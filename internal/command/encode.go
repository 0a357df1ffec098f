package command

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/glizzus/pcmopus/internal/config"
	"github.com/glizzus/pcmopus/internal/datalayer"
	"github.com/glizzus/pcmopus/internal/generator"
	"github.com/glizzus/pcmopus/internal/opus"
	"github.com/glizzus/pcmopus/internal/pcm"
	"github.com/glizzus/pcmopus/internal/pipeline"
	"github.com/glizzus/pcmopus/internal/repository"
	"github.com/urfave/cli/v2"
)

const defaultKeyPrefix = "assets"

// sourceFlags are shared by every command that encodes a file.
func (a *app) sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "skip-failed",
			Usage: "drop frames that fail to encode instead of aborting",
		},
		&cli.StringFlag{
			Name:  "ffmpeg",
			Usage: "path to ffmpeg; enables transcoding of inputs that are not raw PCM or WAV",
			Value: a.encoder.FFmpegPath,
		},
	}
}

func (a *app) encodeFlags() []cli.Flag {
	return append(a.sourceFlags(),
		&cli.StringFlag{
			Name:  "out",
			Usage: "write the packets as a length-prefixed stream to `FILE`",
		},
		&cli.StringFlag{
			Name:  "ogg",
			Usage: "write the packets as an Ogg Opus file to `FILE`",
		},
		&cli.BoolFlag{
			Name:  "store",
			Usage: "upload the packets to blob storage and record them in the catalog",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "catalog name of a stored asset; defaults to the file name",
		},
	)
}

func fileArg(c *cli.Context) (string, error) {
	path := c.Args().First()
	if path == "" {
		return "", cli.Exit("Missing file argument", 1)
	}
	return path, nil
}

func encodeFailed(err error) error {
	return cli.Exit(fmt.Sprintf("Opus encoding failed: %v", err), ExitEncodeFailed)
}

// opusConfig returns the libopus settings of c.
func opusConfig(c *config.EncoderConfig) opus.EncoderConfig {
	return opus.EncoderConfig{
		SampleRate:      c.SampleRate,
		Channels:        c.Channels,
		SamplesPerFrame: c.SamplesPerFrame,
		MaxPacketSize:   c.MaxPacketSize,
		Bitrate:         c.Bitrate,
		Complexity:      c.Complexity,
		Application:     c.Application,
	}
}

// encode loads path and runs it through the pipeline with libopus.
func (a *app) encode(c *cli.Context, path string) (*pipeline.Result, pipeline.Config, error) {
	cfg, err := a.encoder.Pipeline()
	if err != nil {
		return nil, cfg, err
	}
	if c.Bool("skip-failed") {
		cfg.FailurePolicy = pipeline.SkipOnError
	}

	enc, err := opus.NewEncoder(opusConfig(a.encoder))
	if err != nil {
		return nil, cfg, err
	}

	ffmpegPath := c.String("ffmpeg")
	samples, err := pcm.Load(c.Context, path, pcm.LoadOptions{
		Format:     pcm.Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels},
		Transcode:  ffmpegPath != "",
		FFmpegPath: ffmpegPath,
	})
	if err != nil {
		return nil, cfg, err
	}

	res, err := pipeline.Run(c.Context, cfg, samples, enc, pipeline.WithLogger(a.logger))
	if err != nil {
		return nil, cfg, err
	}
	if len(res.Skipped) > 0 {
		a.logger.Warn("frames were skipped", "count", len(res.Skipped), "frames", res.Skipped)
	}
	return res, cfg, nil
}

func (a *app) encodeAction(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}

	res, cfg, err := a.encode(c, path)
	if err != nil {
		return encodeFailed(err)
	}

	if out := c.String("out"); out != "" {
		if err := writeFrames(out, res); err != nil {
			return encodeFailed(err)
		}
	}
	if out := c.String("ogg"); out != "" {
		if err := writeOgg(out, res, cfg); err != nil {
			return encodeFailed(err)
		}
	}

	fmt.Fprint(c.App.Writer, res.Summary.String())

	if c.Bool("store") {
		name := c.String("name")
		if name == "" {
			name = path
		}
		asset, err := a.store(c.Context, name, path, res, cfg)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to store asset: %v", err), 1)
		}
		fmt.Fprintf(c.App.Writer, "Stored asset: %s\n", asset.ID)
	}
	return nil
}

func writeFrames(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := opus.NewFrameWriter(f).WritePackets(res.Packets); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func writeOgg(path string, res *pipeline.Result, cfg pipeline.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = opus.WriteOgg(f, res.Packets, opus.OggOptions{
		SampleRate:      cfg.SampleRate,
		Channels:        cfg.Channels,
		SamplesPerFrame: cfg.SamplesPerFrame,
		SampleCount:     res.Summary.SampleCount,
		Serial:          rand.Uint32(),
	})
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// store uploads the length-prefixed stream and records it in the catalog.
func (a *app) store(ctx context.Context, name, source string, res *pipeline.Result, cfg pipeline.Config) (repository.Asset, error) {
	backend, release, err := a.backend(ctx)
	if err != nil {
		return repository.Asset{}, err
	}
	defer release()

	prefix := backend.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	keys := &generator.ObjectKeyGenerator{IDs: a.ids, Prefix: prefix, Ext: ".opus"}
	key, err := keys.Next()
	if err != nil {
		return repository.Asset{}, fmt.Errorf("failed to generate asset id: %w", err)
	}

	var buf bytes.Buffer
	if err := opus.NewFrameWriter(&buf).WritePackets(res.Packets); err != nil {
		return repository.Asset{}, err
	}
	err = backend.Blobs.Put(ctx, key.Key, &buf, datalayer.PutOptions{
		Size:        opus.EncodedSize(res.Packets),
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return repository.Asset{}, fmt.Errorf("failed to upload packets: %w", err)
	}

	asset := repository.Asset{
		ID:              key.ID,
		Name:            name,
		SourcePath:      source,
		SampleRate:      cfg.SampleRate,
		Channels:        cfg.Channels,
		SamplesPerFrame: cfg.SamplesPerFrame,
		PacketCount:     res.Summary.PacketCount,
		TotalBytes:      int64(res.Summary.TotalBytes),
		DurationMS:      res.Summary.Duration.Milliseconds(),
		ObjectKey:       key.Key,
	}
	if err := backend.Catalog.Save(ctx, asset); err != nil {
		return repository.Asset{}, err
	}
	a.logger.Info("stored asset", "id", asset.ID, "key", asset.ObjectKey, "packets", asset.PacketCount)
	return asset, nil
}
