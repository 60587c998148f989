// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. PicturePath and ImageID reference the
// profile image on the external asset host; raw image bytes are never stored.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FirstName   string         `gorm:"size:50;not null" json:"firstName"`
	LastName    string         `gorm:"size:50;not null" json:"lastName"`
	Email       string         `gorm:"size:200;uniqueIndex;not null" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	PicturePath string         `json:"picturePath"`
	ImageID     string         `json:"imageId"`
	Friends     IDList         `gorm:"type:text" json:"friends"`
	Location    string         `json:"location"`
	Occupation  string         `json:"occupation"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// DisplayName is the denormalized name snapshotted onto posts and comments.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
