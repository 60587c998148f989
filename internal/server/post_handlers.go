package server

import (
	"strconv"
	"strings"

	"sociogram/internal/models"
	"sociogram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /posts. Multipart: description plus a required
// picture file. An explicit userId form field overrides the token subject,
// matching the classic API's trust in the client-provided id.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if raw := strings.TrimSpace(c.FormValue("userId")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			return models.RespondWithError(c,
				models.NewValidationError("Invalid user ID"))
		}
		userID = uint(parsed)
	}

	img, err := s.formImage(c, "picture")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:      userID,
		Description: c.FormValue("description"),
		Image:       img,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetFeedPosts handles GET /posts?page= and returns one page of the global
// feed, newest first.
func (s *Server) GetFeedPosts(c *fiber.Ctx) error {
	page := parsePage(c)
	posts, total, err := s.postService.Feed(c.Context(), page, s.config.ItemsPerPage)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts": posts,
		"metaData": fiber.Map{
			"totalPosts":   total,
			"postsPerPage": s.config.ItemsPerPage,
		},
	})
}

// GetUserPosts handles GET /posts/:id where :id is a USER id, returning that
// user's posts with the same pagination contract as the feed.
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id", "user ID")
	if err != nil {
		return nil
	}

	page := parsePage(c)
	posts, total, err := s.postService.UserPosts(c.Context(), userID, page, s.config.ItemsPerPage)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts": posts,
		"metaData": fiber.Map{
			"totalPosts":   total,
			"postsPerPage": s.config.ItemsPerPage,
		},
	})
}

// GetPost handles GET /posts/:postId/getpost
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId", "post ID")
	if err != nil {
		return nil
	}

	post, err := s.postService.Get(c.Context(), postID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(post)
}

// LikePost handles PATCH /posts/:id/like. The body names the liking user;
// the toggle flips their entry in the post's like-map and returns the
// updated post.
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	var req struct {
		UserID uint `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}
	userID := req.UserID
	if userID == 0 {
		userID = currentUserID(c)
	}
	if userID == 0 {
		return models.RespondWithError(c,
			models.NewValidationError("User ID is required"))
	}

	post, err := s.postService.ToggleLike(c.Context(), postID, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /posts/:postId/deletePost. The cascade removes
// the post's comments and releases its image asset.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId", "post ID")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.Context(), postID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
