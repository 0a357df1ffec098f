package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAssetNotFound is returned when no asset has the requested ID.
var ErrAssetNotFound = errors.New("asset not found")

// Asset is the catalog entry for one encoded packet stream. The packets
// themselves live in blob storage under ObjectKey.
type Asset struct {
	ID              string
	Name            string
	SourcePath      string
	SampleRate      int
	Channels        int
	SamplesPerFrame int
	PacketCount     int
	TotalBytes      int64
	DurationMS      int64
	ObjectKey       string
	CreatedAt       time.Time
}

func (a Asset) Duration() time.Duration {
	return time.Duration(a.DurationMS) * time.Millisecond
}

type AssetPersister interface {
	Save(ctx context.Context, asset Asset) error
}

type AssetFinder interface {
	Get(ctx context.Context, id string) (Asset, error)
	List(ctx context.Context, limit int) ([]Asset, error)
}

type PostgresAssetRepository struct {
	db *pgxpool.Pool
}

func NewPostgresAssetRepository(db *pgxpool.Pool) *PostgresAssetRepository {
	return &PostgresAssetRepository{db: db}
}

func AssetToRowParams(asset Asset) []any {
	return []any{
		asset.ID,
		asset.Name,
		asset.SourcePath,
		asset.SampleRate,
		asset.Channels,
		asset.SamplesPerFrame,
		asset.PacketCount,
		asset.TotalBytes,
		asset.DurationMS,
		asset.ObjectKey,
	}
}

func (r *PostgresAssetRepository) Save(ctx context.Context, asset Asset) error {
	const assetQuery = `
	INSERT INTO opus_asset (
		id, asset_name, source_path, sample_rate, channels, samples_per_frame,
		packet_count, total_bytes, duration_ms, object_key
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		asset_name = EXCLUDED.asset_name,
		source_path = EXCLUDED.source_path,
		sample_rate = EXCLUDED.sample_rate,
		channels = EXCLUDED.channels,
		samples_per_frame = EXCLUDED.samples_per_frame,
		packet_count = EXCLUDED.packet_count,
		total_bytes = EXCLUDED.total_bytes,
		duration_ms = EXCLUDED.duration_ms,
		object_key = EXCLUDED.object_key
	`

	if _, err := r.db.Exec(ctx, assetQuery, AssetToRowParams(asset)...); err != nil {
		return fmt.Errorf("failed to execute asset query: %w", err)
	}
	return nil
}

const assetColumns = `
	id, asset_name, source_path, sample_rate, channels, samples_per_frame,
	packet_count, total_bytes, duration_ms, object_key, created_at
`

func scanAsset(row pgx.Row) (Asset, error) {
	var a Asset
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.SourcePath,
		&a.SampleRate,
		&a.Channels,
		&a.SamplesPerFrame,
		&a.PacketCount,
		&a.TotalBytes,
		&a.DurationMS,
		&a.ObjectKey,
		&a.CreatedAt,
	)
	return a, err
}

func (r *PostgresAssetRepository) Get(ctx context.Context, id string) (Asset, error) {
	query := `SELECT` + assetColumns + `FROM opus_asset WHERE id = $1`

	asset, err := scanAsset(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if err != nil {
		return Asset{}, fmt.Errorf("failed to query asset: %w", err)
	}
	return asset, nil
}

// List returns the most recently created assets first.
func (r *PostgresAssetRepository) List(ctx context.Context, limit int) ([]Asset, error) {
	query := `SELECT` + assetColumns + `FROM opus_asset ORDER BY created_at DESC, id LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return assets, nil
}

var (
	_ AssetPersister = (*PostgresAssetRepository)(nil)
	_ AssetFinder    = (*PostgresAssetRepository)(nil)
)
