// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"sociogram/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// demoPassword is the login password for every seeded account.
const demoPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rnd *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Factory{db: db, rnd: rand.New(rand.NewSource(seed))}
}

// CreateUser persists a user with faked profile fields. Seeded accounts share
// one bcrypt hash so large seeds don't spend seconds on hashing.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		FirstName:   gofakeit.FirstName(),
		LastName:    gofakeit.LastName(),
		Email:       gofakeit.Email(),
		Password:    demoHash(),
		PicturePath: avatarURL(),
		ImageID:     fmt.Sprintf("images/seed-%s.webp", gofakeit.UUID()),
		Friends:     models.IDList{},
		Location:    gofakeit.City(),
		Occupation:  gofakeit.JobTitle(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a post owned by user, snapshotting the owner's display
// fields the way the API does, with a created-at spread over the last 90 days.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		UserID:          user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Location:        user.Location,
		Description:     gofakeit.Sentence(8 + f.rnd.Intn(10)),
		PicturePath:     pictureURL(),
		UserPicturePath: user.PicturePath,
		ImageID:         fmt.Sprintf("images/seed-%s.webp", gofakeit.UUID()),
		Likes:           models.LikeMap{},
		Comments:        models.IDList{},
		CreatedAt:       f.pastTime(90 * 24 * time.Hour),
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by user on post and appends its id to the
// post's comment list.
func (f *Factory) CreateComment(post *models.Post, user *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:          post.ID,
		PostUserID:      post.UserID,
		UserID:          user.ID,
		Description:     gofakeit.Sentence(4 + f.rnd.Intn(8)),
		Name:            user.DisplayName(),
		Location:        user.Location,
		UserPicturePath: user.PicturePath,
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}

	post.Comments = append(post.Comments, comment.ID)
	err := f.db.Model(&models.Post{}).
		Where("id = ?", post.ID).
		Update("comments", post.Comments).Error
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Like records a like by user on post via a full-field write.
func (f *Factory) Like(post *models.Post, user *models.User) error {
	if post.Likes == nil {
		post.Likes = models.LikeMap{}
	}
	post.Likes[post.Likes.Key(user.ID)] = true
	return f.db.Model(&models.Post{}).
		Where("id = ?", post.ID).
		Update("likes", post.Likes).Error
}

func (f *Factory) pastTime(span time.Duration) time.Time {
	return time.Now().Add(-time.Duration(f.rnd.Int63n(int64(span))))
}

func avatarURL() string {
	return fmt.Sprintf("https://i.pravatar.cc/300?u=%s", gofakeit.UUID())
}

func pictureURL() string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
}

var cachedHash string

func demoHash() string {
	if cachedHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		cachedHash = string(hash)
	}
	return cachedHash
}
