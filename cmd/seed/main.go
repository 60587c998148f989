// Command seed populates the database with demo users, posts, and comments.
package main

import (
	"flag"
	"log"

	"sociogram/internal/config"
	"sociogram/internal/database"
	"sociogram/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "number of users to create")
	postsPerUser := flag.Int("posts", 5, "posts per user")
	commentsPerPost := flag.Int("comments", 3, "comments per post")
	clean := flag.Bool("clean", false, "remove existing rows before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = seed.Run(db, seed.Options{
		NumUsers:        *numUsers,
		PostsPerUser:    *postsPerUser,
		CommentsPerPost: *commentsPerPost,
		ShouldClean:     *clean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
