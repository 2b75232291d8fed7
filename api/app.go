package api

import (
	"github.com/SlpAus/ballpark-ranking-backend/internal/attendance"
	"github.com/SlpAus/ballpark-ranking-backend/internal/game"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/config"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/health"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/metadata"
	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"github.com/SlpAus/ballpark-ranking-backend/internal/team"
	"github.com/SlpAus/ballpark-ranking-backend/internal/user"
	"github.com/SlpAus/ballpark-ranking-backend/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App is the wired application: the ranking subsystem, its collaborators and the
// HTTP router on top.
type App struct {
	Sync   *rank.Synchronizer
	Health *health.Checker
	Router *gin.Engine
}

// NewApp wires every service against db and rdb. runID identifies the Redis server for
// the health checker.
func NewApp(cfg *config.Config, db *gorm.DB, rdb redis.Cmdable, runID health.RunIDFunc) *App {
	users := user.NewRepository(db)
	ledger := rank.NewLedger(db)
	cache := rank.NewCache(rdb)
	sync := rank.NewSynchronizer(ledger, cache, users)
	sync.RecordRebuildsTo(metadata.NewStore(db))
	checker := health.NewChecker(runID, sync.RebuildCache)

	tokens := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	teams := team.NewRepository(db)
	games := game.NewService(game.NewRepository(db), teams)
	registered := attendance.NewService(attendance.NewRepository(db), games, users, sync)
	games.Subscribe(registered)

	handlers := Handlers{
		Rank:       rank.NewHandler(rank.NewService(ledger, cache, users), checker, cfg.Ranking.PageSize, cfg.Ranking.NeighborWindow),
		Team:       team.NewHandler(teams),
		User:       user.NewHandler(user.NewService(users, sync, tokens)),
		Game:       game.NewHandler(games),
		Attendance: attendance.NewHandler(registered),
		Health:     checker,
	}
	return &App{
		Sync:   sync,
		Health: checker,
		Router: NewRouter(cfg.Server, tokens, cfg.Auth.OperatorUserIDs, handlers),
	}
}
