package api

import (
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/internal/attendance"
	"github.com/SlpAus/ballpark-ranking-backend/internal/game"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/auth"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/config"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/health"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/logging"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/metrics"
	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"github.com/SlpAus/ballpark-ranking-backend/internal/team"
	"github.com/SlpAus/ballpark-ranking-backend/internal/user"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers are the per-feature handlers mounted by SetupRoutes.
type Handlers struct {
	Rank       *rank.Handler
	Team       *team.Handler
	User       *user.Handler
	Game       *game.Handler
	Attendance *attendance.Handler
	Health     *health.Checker
}

// NewRouter builds the gin engine with its middleware chain and every route. Only
// operatorIDs may create games and record results.
func NewRouter(cfg config.ServerConfig, verifier auth.Verifier, operatorIDs []int64, h Handlers) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		logging.RequestLogger(),
		metrics.Middleware(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.Cors.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	SetupRoutes(r, verifier, operatorIDs, h)
	return r
}

// SetupRoutes registers every API route.
func SetupRoutes(router *gin.Engine, verifier auth.Verifier, operatorIDs []int64, h Handlers) {
	requireUser := auth.RequireUser(verifier)
	requireOperator := auth.RequireOperator(operatorIDs)

	router.GET("/healthz", h.Health.Handler)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	{
		ranks := api.Group("/ranks")
		{
			ranks.GET("", h.Rank.GetLeaderboard)
			ranks.GET("/me", requireUser, h.Rank.GetMyNeighbors)
			ranks.GET("/users/:userId/stats", h.Rank.GetUserStats)
		}

		api.GET("/teams", h.Team.ListTeams)

		users := api.Group("/users")
		{
			users.POST("", h.User.CreateUser)
			users.GET("/me", requireUser, h.User.GetMe)
			users.DELETE("/me", requireUser, h.User.DeleteMe)
		}

		games := api.Group("/games")
		{
			games.GET("/:id", h.Game.GetGame)
			games.POST("", requireUser, requireOperator, h.Game.CreateGame)
			games.PUT("/:id/result", requireUser, requireOperator, h.Game.RecordResult)
		}

		registered := api.Group("/registered-games", requireUser)
		{
			registered.GET("", h.Attendance.ListMine)
			registered.POST("", h.Attendance.Register)
			registered.DELETE("/:id", h.Attendance.Unregister)
		}
	}
}
