package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents an image-bearing post. FirstName, LastName, Location and
// UserPicturePath are snapshots of the owner taken at creation time; they are
// not refreshed when the owner later edits their profile. The like-map is the
// source of truth for like state, while the comment-id list weakly references
// rows owned by the comment store.
type Post struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"userId"`
	FirstName       string         `gorm:"not null" json:"firstName"`
	LastName        string         `gorm:"not null" json:"lastName"`
	Location        string         `json:"location"`
	Description     string         `gorm:"type:text" json:"description"`
	PicturePath     string         `json:"picturePath"`
	UserPicturePath string         `json:"userPicturePath"`
	ImageID         string         `json:"imageId"`
	Likes           LikeMap        `gorm:"type:text" json:"likes"`
	Comments        IDList         `gorm:"type:text" json:"comments"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
