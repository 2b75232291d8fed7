package game

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, g *Game) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// Get returns ErrNotFound when there is no game with the id.
func (r *Repository) Get(ctx context.Context, id int64) (*Game, error) {
	var g Game
	err := r.db.WithContext(ctx).First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", id, err)
	}
	return &g, nil
}

// SaveResult writes status and scores, including nil scores.
func (r *Repository) SaveResult(ctx context.Context, g *Game) error {
	err := r.db.WithContext(ctx).
		Model(g).
		Select("status", "home_score", "away_score", "updated_at").
		Updates(g).Error
	if err != nil {
		return fmt.Errorf("save result of game %d: %w", g.ID, err)
	}
	return nil
}
