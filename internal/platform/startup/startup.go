package startup

import (
	"context"
	"fmt"

	"github.com/SlpAus/ballpark-ranking-backend/internal/attendance"
	"github.com/SlpAus/ballpark-ranking-backend/internal/game"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/metadata"
	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"github.com/SlpAus/ballpark-ranking-backend/internal/team"
	"github.com/SlpAus/ballpark-ranking-backend/internal/user"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CacheBuilder rebuilds the ranking cache from the ledger.
type CacheBuilder interface {
	RebuildCache(ctx context.Context) error
}

// Migrate creates or updates every table and seeds the teams.
func Migrate(ctx context.Context, db *gorm.DB) error {
	migrations := []struct {
		name string
		run  func(*gorm.DB) error
	}{
		{"users", user.Migrate},
		{"games", game.Migrate},
		{"registered games", attendance.Migrate},
		{"rank records", rank.Migrate},
		{"metadata", metadata.Migrate},
	}
	for _, m := range migrations {
		if err := m.run(db); err != nil {
			return err
		}
		log.Debug().Str("table", m.name).Msg("migrated")
	}
	return team.Setup(ctx, db)
}

// InitializeApplication prepares both stores: schema first, then a full ranking cache
// projection so the cache matches the ledger before the first request.
func InitializeApplication(ctx context.Context, db *gorm.DB, cache CacheBuilder) error {
	log.Info().Msg("initializing application")
	if err := Migrate(ctx, db); err != nil {
		return err
	}
	if info, ok, err := metadata.NewStore(db).LastRankRebuild(ctx); err != nil {
		log.Warn().Err(err).Msg("could not read last rank rebuild")
	} else if ok {
		log.Info().Time("at", info.At).Int("users", info.Users).Msg("previous ranking cache rebuild")
	}
	if err := cache.RebuildCache(ctx); err != nil {
		return fmt.Errorf("initial ranking cache build: %w", err)
	}
	log.Info().Msg("application initialized")
	return nil
}
