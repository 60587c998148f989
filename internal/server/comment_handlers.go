package server

import (
	"sociogram/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles PUT /posts/:postId/comment. The created comment snapshots
// the commenter's display fields and the response carries the parent post with
// its refreshed comment-id list.
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId", "post ID")
	if err != nil {
		return nil
	}

	var req struct {
		UserID      uint   `json:"userId"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}
	userID := req.UserID
	if userID == 0 {
		userID = currentUserID(c)
	}

	post, err := s.commentService.AddComment(c.Context(), postID, userID, req.Description)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// GetPostComments handles GET /posts/:postId/getAllComments?page=
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId", "post ID")
	if err != nil {
		return nil
	}

	page := parsePage(c)
	comments, total, err := s.commentService.List(c.Context(), postID, page, s.config.ItemsPerPage)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{
		"comments": comments,
		"metaData": fiber.Map{
			"totalComments":   total,
			"commentsPerPage": s.config.ItemsPerPage,
		},
	})
}

// DeleteComment handles DELETE /posts/:commentId/deleteComment. The comment
// id comes in the post segment of the path; the parent post is found through
// the comment row itself.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	if err := s.commentService.Delete(c.Context(), commentID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
