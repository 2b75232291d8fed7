package game

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var registerValidation sync.Once

func registerStatusValidation() {
	registerValidation.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("gamestatus", func(fl validator.FieldLevel) bool {
			return Status(fl.Field().String()).Valid()
		})
	})
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	registerStatusValidation()
	return &Handler{service: service}
}

type CreateGameRequest struct {
	Date        time.Time `json:"date" binding:"required"`
	HomeTeamID  int64     `json:"homeTeamId" binding:"required,gt=0"`
	AwayTeamID  int64     `json:"awayTeamId" binding:"required,gt=0,nefield=HomeTeamID"`
	StadiumName string    `json:"stadiumName" binding:"max=100"`
}

type RecordResultRequest struct {
	Status    Status `json:"status" binding:"required,gamestatus"`
	HomeScore *int   `json:"homeScore" binding:"omitempty,gte=0"`
	AwayScore *int   `json:"awayScore" binding:"omitempty,gte=0"`
}

// CreateGame handles POST /games.
func (h *Handler) CreateGame(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	g, err := h.service.Create(c.Request.Context(), CreateInput{
		Date:        req.Date,
		HomeTeamID:  req.HomeTeamID,
		AwayTeamID:  req.AwayTeamID,
		StadiumName: req.StadiumName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// GetGame handles GET /games/:id.
func (h *Handler) GetGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	g, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// RecordResult handles PUT /games/:id/result.
func (h *Handler) RecordResult(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	var req RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	g, err := h.service.RecordResult(c.Request.Context(), id, ResultInput{
		Status:    req.Status,
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func gameID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnknownTeam), errors.Is(err, ErrSameTeams), errors.Is(err, ErrInvalidResult):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("game request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process game"})
	}
}
