package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is an independent record cross-referenced from its parent post's
// comment-id list. Name, Location and UserPicturePath are snapshots of the
// commenting user taken at creation time.
type Comment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	PostID          uint           `gorm:"not null;index" json:"postId"`
	PostUserID      uint           `gorm:"not null" json:"postUserId"`
	UserID          uint           `gorm:"not null" json:"userId"`
	Description     string         `gorm:"type:text;not null" json:"description"`
	Name            string         `json:"name"`
	Location        string         `json:"location"`
	UserPicturePath string         `json:"userPicturePath"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
