package team

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads and seeds the teams table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every team ordered by id.
func (r *Repository) List(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := r.db.WithContext(ctx).Order("id").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// Exists reports whether a team with the id exists.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Team{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup team %d: %w", id, err)
	}
	return n > 0, nil
}

// Seed inserts the default clubs. Teams already present are left as they are.
func (r *Repository) Seed(ctx context.Context) (int64, error) {
	teams := make([]Team, len(defaultTeams))
	copy(teams, defaultTeams)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&teams)
	if res.Error != nil {
		return 0, fmt.Errorf("seed teams: %w", res.Error)
	}
	return res.RowsAffected, nil
}
