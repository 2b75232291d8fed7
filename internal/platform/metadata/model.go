package metadata

import "time"

// Keys of the metadata table.
const (
	// LastRankRebuildAtKey holds the RFC 3339 time of the last successful full ranking
	// cache rebuild.
	LastRankRebuildAtKey = "rank_last_rebuild_at"

	// LastRankRebuildUsersKey holds the number of users ranked by that rebuild.
	LastRankRebuildUsersKey = "rank_last_rebuild_users"
)

// Metadata is one key-value pair of system bookkeeping.
type Metadata struct {
	ID        uint   `gorm:"primarykey"`
	Key       string `gorm:"uniqueIndex;not null;type:varchar(255)"`
	Value     string `gorm:"type:varchar(255)"`
	UpdatedAt time.Time
}

func (Metadata) TableName() string {
	return "metadata"
}
