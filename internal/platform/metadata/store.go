package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RebuildInfo describes the last successful ranking cache rebuild.
type RebuildInfo struct {
	At    time.Time
	Users int
}

// Store reads and writes the metadata table.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("migrate metadata: %w", err)
	}
	return nil
}

// GetValue returns the value of key. ok is false when the key was never set.
func (s *Store) GetValue(ctx context.Context, key string) (value string, ok bool, err error) {
	var meta Metadata
	err = s.db.WithContext(ctx).Where("key = ?", key).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return meta.Value, true, nil
}

// SetValue creates or overwrites key.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	return setValue(s.db.WithContext(ctx), key, value)
}

func setValue(db *gorm.DB, key, value string) error {
	meta := Metadata{Key: key, Value: value, UpdatedAt: time.Now()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error
}

// RecordRankRebuild stores the time and size of a successful rebuild. Both keys are
// written in one transaction.
func (s *Store) RecordRankRebuild(ctx context.Context, at time.Time, users int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setValue(tx, LastRankRebuildAtKey, at.UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
		return setValue(tx, LastRankRebuildUsersKey, strconv.Itoa(users))
	})
}

// LastRankRebuild returns the last recorded rebuild. ok is false when none was recorded.
func (s *Store) LastRankRebuild(ctx context.Context) (info RebuildInfo, ok bool, err error) {
	atStr, ok, err := s.GetValue(ctx, LastRankRebuildAtKey)
	if err != nil || !ok {
		return RebuildInfo{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, atStr)
	if err != nil {
		return RebuildInfo{}, false, fmt.Errorf("parse metadata %q: %w", LastRankRebuildAtKey, err)
	}

	usersStr, _, err := s.GetValue(ctx, LastRankRebuildUsersKey)
	if err != nil {
		return RebuildInfo{}, false, err
	}
	users := 0
	if usersStr != "" {
		if users, err = strconv.Atoi(usersStr); err != nil {
			return RebuildInfo{}, false, fmt.Errorf("parse metadata %q: %w", LastRankRebuildUsersKey, err)
		}
	}
	return RebuildInfo{At: at, Users: users}, true, nil
}
