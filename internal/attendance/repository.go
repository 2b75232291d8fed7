package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts rg. A second registration of the same game by the same user returns
// ErrAlreadyRegistered.
func (r *Repository) Create(ctx context.Context, rg *RegisteredGame) error {
	err := r.db.WithContext(ctx).Create(rg).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("create registered game: %w", err)
	}
	return nil
}

// Get returns ErrNotFound when there is no row with the id.
func (r *Repository) Get(ctx context.Context, id int64) (*RegisteredGame, error) {
	var rg RegisteredGame
	err := r.db.WithContext(ctx).First(&rg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get registered game %d: %w", id, err)
	}
	return &rg, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&RegisteredGame{}, id).Error; err != nil {
		return fmt.Errorf("delete registered game %d: %w", id, err)
	}
	return nil
}

// SetOutcome overwrites the counted outcome; nil clears it.
func (r *Repository) SetOutcome(ctx context.Context, id int64, outcome *rank.Outcome) error {
	err := r.db.WithContext(ctx).
		Model(&RegisteredGame{}).
		Where("id = ?", id).
		Update("outcome", outcome).Error
	if err != nil {
		return fmt.Errorf("set outcome of registered game %d: %w", id, err)
	}
	return nil
}

// ListForUser returns the user's registrations, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]RegisteredGame, error) {
	var rgs []RegisteredGame
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rgs).Error
	if err != nil {
		return nil, fmt.Errorf("list registered games of user %d: %w", userID, err)
	}
	return rgs, nil
}

func (r *Repository) ListForGame(ctx context.Context, gameID int64) ([]RegisteredGame, error) {
	var rgs []RegisteredGame
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id").
		Find(&rgs).Error
	if err != nil {
		return nil, fmt.Errorf("list registered games of game %d: %w", gameID, err)
	}
	return rgs, nil
}
