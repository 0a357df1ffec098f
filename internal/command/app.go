// Package command builds the opusenc command line application.
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/glizzus/pcmopus/internal/config"
	"github.com/glizzus/pcmopus/internal/datalayer"
	"github.com/glizzus/pcmopus/internal/generator"
	"github.com/glizzus/pcmopus/internal/repository"
	"github.com/urfave/cli/v2"
)

// ExitEncodeFailed is the status of any failed encode.
const ExitEncodeFailed = 255

// Catalog records and looks up stored assets.
type Catalog interface {
	repository.AssetPersister
	repository.AssetFinder
}

// Backend is where encoded assets are kept.
type Backend struct {
	Catalog   Catalog
	Blobs     datalayer.BlobStorage
	// KeyPrefix is the directory object keys are created under.
	KeyPrefix string
}

// BackendFunc opens a Backend. The returned func releases it.
type BackendFunc func(ctx context.Context) (*Backend, func(), error)

// EnvBackend connects to Postgres and MinIO using the environment, migrating
// the schema and creating the bucket when needed.
func EnvBackend(ctx context.Context) (*Backend, func(), error) {
	pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := datalayer.MigratePostgres(pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}

	minioConfig, err := config.NewMinioConfigFromEnv()
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to load minio config: %w", err)
	}
	minioStorage, err := datalayer.NewMinioStorage(minioConfig)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to create minio storage: %w", err)
	}
	if err := minioStorage.EnsureBucket(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ensure minio bucket: %w", err)
	}

	return &Backend{
		Catalog:   repository.NewPostgresAssetRepository(pool),
		Blobs:     minioStorage,
		KeyPrefix: minioConfig.Prefix,
	}, pool.Close, nil
}

// Options wires the application to its environment. Zero values fall back
// to the process environment.
type Options struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Encoder *config.EncoderConfig
	Backend BackendFunc
	IDs     generator.Generator[string]
	Logger  *slog.Logger
}

type app struct {
	encoder *config.EncoderConfig
	backend BackendFunc
	ids     generator.Generator[string]
	logger  *slog.Logger
}

// NewApp returns the opusenc application. Running it without a subcommand
// encodes the file named by the first argument.
func NewApp(opts Options) *cli.App {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Encoder == nil {
		opts.Encoder = config.DefaultEncoderConfig()
	}
	if opts.Backend == nil {
		opts.Backend = EnvBackend
	}
	if opts.IDs == nil {
		opts.IDs = &generator.UUIDV4Generator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	a := &app{
		encoder: opts.Encoder,
		backend: opts.Backend,
		ids:     opts.IDs,
		logger:  opts.Logger,
	}

	return &cli.App{
		Name:      "opusenc",
		Usage:     "Encode 16-bit PCM audio into Opus packets",
		ArgsUsage: "<file>",
		Writer:    opts.Stdout,
		ErrWriter: opts.Stderr,
		Flags:     a.encodeFlags(),
		Action:    a.encodeAction,
		Commands: []*cli.Command{
			a.listCommand(),
			a.rtpCommand(),
			a.playCommand(),
		},
	}
}
