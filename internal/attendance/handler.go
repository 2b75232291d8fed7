package attendance

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SlpAus/ballpark-ranking-backend/internal/game"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type RegisterRequest struct {
	GameID         int64  `json:"gameId" binding:"required,gt=0"`
	CheeringTeamID int64  `json:"cheeringTeamId" binding:"required,gt=0"`
	Memo           string `json:"memo" binding:"max=500"`
}

// ListMine handles GET /registered-games.
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	rgs, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rgs)
}

// Register handles POST /registered-games.
func (h *Handler) Register(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	rg, err := h.service.Create(c.Request.Context(), userID, CreateInput{
		GameID:         req.GameID,
		CheeringTeamID: req.CheeringTeamID,
		Memo:           req.Memo,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rg)
}

// Unregister handles DELETE /registered-games/:id.
func (h *Handler) Unregister(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registered game id"})
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, game.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrTeamNotInGame):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnknownUser):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("registered game request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update registered games"})
	}
}
