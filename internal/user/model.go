package user

import "time"

// User is a fan account. Deleting a user removes its registered games and rank rows.
type User struct {
	ID           int64     `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Nickname     string    `gorm:"type:varchar(30);not null" json:"nickname"`
	ProfileImage *string   `gorm:"type:varchar(500)" json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
