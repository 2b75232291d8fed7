package rank

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Readiness reports whether the cache can serve rankings right now.
type Readiness interface {
	Healthy() bool
}

// Handler serves the /ranks routes.
type Handler struct {
	service        *Service
	ready          Readiness
	pageSize       int64
	neighborWindow int64
}

func NewHandler(service *Service, ready Readiness, pageSize, neighborWindow int64) *Handler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Handler{
		service:        service,
		ready:          ready,
		pageSize:       pageSize,
		neighborWindow: neighborWindow,
	}
}

// LeaderboardQuery is the query string of GET /ranks.
type LeaderboardQuery struct {
	TeamID *int64 `form:"teamId" binding:"omitempty,gt=0"`
	Start  int64  `form:"start" binding:"gte=0"`
	End    *int64 `form:"end" binding:"omitempty,gte=-1"`
}

// NeighborsQuery is the query string of GET /ranks/me.
type NeighborsQuery struct {
	TeamID *int64 `form:"teamId" binding:"omitempty,gt=0"`
	Window *int64 `form:"window" binding:"omitempty,gte=0,lte=50"`
}

type leaderboardResponse struct {
	Scope string       `json:"scope"`
	Total *int64       `json:"total,omitempty"`
	Ranks []RankedUser `json:"ranks"`
}

func scopeOf(teamID *int64) Scope {
	if teamID == nil {
		return TotalScope()
	}
	return TeamScope(*teamID)
}

func (h *Handler) cacheReady(c *gin.Context) bool {
	if h.ready != nil && !h.ready.Healthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ranking temporarily unavailable"})
		return false
	}
	return true
}

// GetLeaderboard handles GET /ranks?teamId=&start=&end=.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	var q LeaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}
	end := q.Start + h.pageSize - 1
	if q.End != nil {
		end = *q.End
	}
	if end != -1 && end < q.Start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be -1 or not less than start"})
		return
	}
	if !h.cacheReady(c) {
		return
	}

	scope := scopeOf(q.TeamID)
	ranks, err := h.service.LeaderboardPage(c.Request.Context(), scope, q.Start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	total, err := h.service.ScopeSize(c.Request.Context(), scope)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, leaderboardResponse{Scope: scope.String(), Total: &total, Ranks: ranks})
}

// GetMyNeighbors handles GET /ranks/me?teamId=&window=.
func (h *Handler) GetMyNeighbors(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	var q NeighborsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}
	window := h.neighborWindow
	if q.Window != nil {
		window = *q.Window
	}
	if !h.cacheReady(c) {
		return
	}

	scope := scopeOf(q.TeamID)
	ranks, err := h.service.UserWithNeighbors(c.Request.Context(), userID, scope, window)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, leaderboardResponse{Scope: scope.String(), Ranks: ranks})
}

// GetUserStats handles GET /ranks/users/:userId/stats.
func (h *Handler) GetUserStats(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	stats, err := h.service.UserOverallStats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func writeError(c *gin.Context, err error) {
	log.Ctx(c.Request.Context()).Error().Err(err).Msg("rank request failed")
	switch {
	case errors.Is(err, ErrCacheUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ranking temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ranking"})
	}
}
