package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/bazaarlink-backend/pkg/config"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

// Applied is one migration run by ApplyEmbedded.
type Applied struct {
	Version    int64
	DurationMS int64
}

// ApplyEmbedded brings the schema up to date with the migrations compiled
// into the binary.
func ApplyEmbedded(ctx context.Context, sqlDB *sql.DB) ([]Applied, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, EmbeddedFS())
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply embedded migrations: %w", err)
	}
	applied := make([]Applied, 0, len(results))
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		applied = append(applied, Applied{Version: res.Source.Version, DurationMS: res.Duration.Milliseconds()})
	}
	return applied, nil
}

// MaybeRunDev applies the embedded schema when running in dev with
// BAZAARLINK_AUTO_MIGRATE on. Every other environment migrates
// through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	applied, err := ApplyEmbedded(ctx, sqlDB)
	if err != nil {
		return err
	}
	for _, a := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     a.Version,
			"duration_ms": a.DurationMS,
		}), "migration applied")
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "schema up to date")
	return nil
}
