package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"sociogram/internal/cache"
	"sociogram/internal/middleware"
	"sociogram/internal/models"
	"sociogram/internal/repository"

	"gorm.io/gorm"
)

// CommentService keeps the comment table and the post-side comment-id list in
// step. Both sides of every mutation run in one transaction.
type CommentService struct {
	db          *gorm.DB
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

// NewCommentService builds a CommentService.
func NewCommentService(
	db *gorm.DB,
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{
		db:          db,
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
	}
}

// AddComment creates a comment carrying a snapshot of the commenter's display
// fields and appends its id to the parent post's comment list. Returns the
// updated post so callers can hand the refreshed aggregate straight back to
// the client.
func (s *CommentService) AddComment(ctx context.Context, postID, userID uint, description string) (*models.Post, error) {
	if strings.TrimSpace(description) == "" {
		return nil, models.NewValidationError("Comment description is required")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:          post.ID,
		PostUserID:      post.UserID,
		UserID:          user.ID,
		Description:     description,
		Name:            user.DisplayName(),
		Location:        user.Location,
		UserPicturePath: user.PicturePath,
	}

	var updated models.Post
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewCommentRepository(tx).Create(ctx, comment); err != nil {
			return err
		}
		// Re-read inside the transaction so a concurrently added comment id
		// is not clobbered by a stale list.
		if err := tx.First(&updated, post.ID).Error; err != nil {
			return err
		}
		updated.Comments = append(updated.Comments, comment.ID)
		return repository.NewPostRepository(tx).UpdateComments(ctx, post.ID, updated.Comments)
	})
	if err != nil {
		return nil, asInternal(err)
	}

	return &updated, nil
}

// List returns one page of a post's comments, newest-first, plus the total
// comment count for the post. The parent post must exist.
func (s *CommentService) List(ctx context.Context, postID uint, page, pageSize int) ([]*models.Comment, int64, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, 0, err
	}

	total, err := s.commentRepo.CountByPost(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// Delete removes a comment and pulls its id out of the parent post's comment
// list in one transaction. A missing parent post still deletes the comment
// row rather than failing the whole operation.
func (s *CommentService) Delete(ctx context.Context, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		switch err := tx.First(&post, comment.PostID).Error; {
		case err == nil:
			trimmed := post.Comments.Without(comment.ID)
			if err := repository.NewPostRepository(tx).UpdateComments(ctx, post.ID, trimmed); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			middleware.Logger.WarnContext(ctx, "deleting comment with missing parent post",
				slog.Uint64("comment_id", uint64(commentID)),
				slog.Uint64("post_id", uint64(comment.PostID)),
			)
		default:
			return err
		}
		return repository.NewCommentRepository(tx).Delete(ctx, commentID)
	})
	if err != nil {
		return asInternal(err)
	}

	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}
