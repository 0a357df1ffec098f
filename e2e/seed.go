package e2e

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glizzus/pcmopus/internal/datalayer"
	"github.com/glizzus/pcmopus/internal/generator"
	"github.com/glizzus/pcmopus/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var seedOnce sync.Once

// SeedGlobalNoise fills the catalog with unrelated assets once per run so
// tests see a database that is not empty.
func SeedGlobalNoise(t *testing.T, repo *repository.PostgresAssetRepository) {
	t.Helper()
	seedOnce.Do(func() {
		keys := generator.ObjectKeyGenerator{
			IDs:    &generator.UUIDV4Generator{},
			Prefix: "noise",
			Ext:    ".opus",
		}
		for i := range 100 {
			key, err := keys.Next()
			if err != nil {
				t.Fatalf("failed to generate key: %v", err)
			}

			asset := repository.Asset{
				ID:              key.ID,
				Name:            fmt.Sprintf("noise-asset-%d", i),
				SourcePath:      fmt.Sprintf("/noise/%d.pcm", i),
				SampleRate:      48000,
				Channels:        2,
				SamplesPerFrame: 960,
				PacketCount:     i,
				TotalBytes:      int64(i * 160),
				DurationMS:      int64(i * 20),
				ObjectKey:       key.Key,
			}

			if err := repo.Save(t.Context(), asset); err != nil {
				t.Fatalf("failed to save asset: %v", err)
			}
		}
	})
}

var (
	once              sync.Once
	postgresContainer *postgres.PostgresContainer
	connStr           string
	startErr          error
	pool              *pgxpool.Pool
	wg                sync.WaitGroup
)

// UsePostgres signals that the test is using Postgres as its database.
// This will either provision or reuse a Postgres container for the test.
// Do not expect a clean state in the database; it is shared across tests
// to simulate real-world usage.
func UsePostgres(t *testing.T) string {
	t.Helper()

	once.Do(func() {
		ctx := context.Background()
		postgresContainer, startErr = postgres.Run(
			ctx,
			"postgres",
			postgres.WithDatabase("pcmopus"),
			postgres.WithUsername("user"),
			postgres.WithPassword("password"),
			postgres.BasicWaitStrategies(),
		)
		if startErr != nil {
			return
		}
		connStr, startErr = postgresContainer.ConnectionString(ctx, "sslmode=disable")
		if startErr != nil {
			return
		}

		pool, startErr = pgxpool.New(ctx, connStr)
		if startErr != nil {
			return
		}
		defer pool.Close()

		startErr = datalayer.MigratePostgres(pool)
	})

	if startErr != nil {
		t.Fatalf("failed to start postgres container: %v", startErr)
	}
	wg.Add(1)
	t.Cleanup(wg.Done)

	return connStr
}

// GetRepository creates a new PostgresAssetRepository for testing.
// It uses the provided connection string to connect to the database.
// It performs no modifications or migrations on the database schema.
func GetRepository(t *testing.T, connStr string) *repository.PostgresAssetRepository {
	t.Helper()
	pool, err := pgxpool.New(t.Context(), connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}

	t.Cleanup(pool.Close)
	return repository.NewPostgresAssetRepository(pool)
}

func TerminatePostgresForE2E() {
	wg.Wait()
	if postgresContainer != nil {
		err := postgresContainer.Terminate(context.Background())
		if err != nil {
			fmt.Printf("failed to terminate postgres container: %v", err)
		}
	}
}
