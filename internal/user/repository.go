package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/ballpark-ranking-backend/internal/attendance"
	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts u. A duplicate email returns ErrEmailTaken.
func (r *Repository) Create(ctx context.Context, u *User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get returns ErrNotFound when there is no user with the id.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup user %d: %w", id, err)
	}
	return n > 0, nil
}

// ProfilesByIDs loads display data of many users in one query. Unknown ids are absent
// from the result.
func (r *Repository) ProfilesByIDs(ctx context.Context, ids []int64) (map[int64]rank.Profile, error) {
	profiles := make(map[int64]rank.Profile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}
	var users []User
	err := r.db.WithContext(ctx).
		Select("id", "nickname", "profile_image").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	for _, u := range users {
		nickname := u.Nickname
		profiles[u.ID] = rank.Profile{Nickname: &nickname, ProfileImage: u.ProfileImage}
	}
	return profiles, nil
}

// AllUserIDs lists every user id, ascending.
func (r *Repository) AllUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}

// DeleteWithActivity deletes the user together with its registered games and rank
// ledger rows in one transaction.
func (r *Repository) DeleteWithActivity(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&attendance.RegisteredGame{}).Error; err != nil {
			return fmt.Errorf("delete registered games of user %d: %w", id, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&rank.Record{}).Error; err != nil {
			return fmt.Errorf("delete rank records of user %d: %w", id, err)
		}
		res := tx.Delete(&User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
