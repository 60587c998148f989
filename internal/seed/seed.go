package seed

import (
	"fmt"
	"log"

	"sociogram/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers        int
	PostsPerUser    int
	CommentsPerPost int
	ShouldClean     bool
}

// DefaultOptions is a small, fast preset for local development.
var DefaultOptions = Options{
	NumUsers:        10,
	PostsPerUser:    5,
	CommentsPerPost: 3,
}

// Run populates the database with fake users, posts, comments, and likes.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts = DefaultOptions
	}

	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return fmt.Errorf("clean failed: %w", err)
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}

	// Wire a simple friend mesh: everyone befriends their neighbors.
	for i, user := range users {
		user.Friends = models.IDList{
			users[(i+1)%len(users)].ID,
			users[(i+len(users)-1)%len(users)].ID,
		}
		if err := db.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("friends", user.Friends).Error; err != nil {
			return fmt.Errorf("update friends: %w", err)
		}
	}

	var postCount, commentCount int
	for _, user := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			post, err := f.CreatePost(user)
			if err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			postCount++

			for j := 0; j < opts.CommentsPerPost; j++ {
				commenter := users[f.rnd.Intn(len(users))]
				if _, err := f.CreateComment(post, commenter); err != nil {
					return fmt.Errorf("create comment: %w", err)
				}
				commentCount++
			}

			// Roughly a third of the audience likes each post.
			for _, liker := range users {
				if f.rnd.Intn(3) == 0 {
					if err := f.Like(post, liker); err != nil {
						return fmt.Errorf("like post: %w", err)
					}
				}
			}
		}
	}

	log.Printf("Seeded %d users, %d posts, %d comments (password for all accounts: %q)",
		len(users), postCount, commentCount, demoPassword)
	return nil
}

// Clean removes all seeded rows. Hard deletes, including soft-deleted rows.
func Clean(db *gorm.DB) error {
	for _, model := range []any{&models.Comment{}, &models.Post{}, &models.User{}} {
		if err := db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
