package user

import (
	"errors"
	"net/http"

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

type CreateUserRequest struct {
	Email        string  `json:"email" binding:"required,email,max=255"`
	Nickname     string  `json:"nickname" binding:"required,min=1,max=30"`
	ProfileImage *string `json:"profileImage" binding:"omitempty,url,max=500"`
}

type createUserResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
}

// CreateUser handles POST /users.
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	u, token, err := h.service.Create(c.Request.Context(), CreateInput{
		Email:        req.Email,
		Nickname:     req.Nickname,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createUserResponse{User: u, AccessToken: token})
}

// GetMe handles GET /users/me.
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	u, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteMe handles DELETE /users/me.
func (h *Handler) DeleteMe(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("user request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process user"})
	}
}
