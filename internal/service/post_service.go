// Package service contains business logic orchestrating repositories and the
// asset host.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"sociogram/internal/assets"
	"sociogram/internal/cache"
	"sociogram/internal/middleware"
	"sociogram/internal/models"
	"sociogram/internal/repository"

	"gorm.io/gorm"
)

// PostService implements post creation, listing, the like toggle, and the
// post-delete cascade.
type PostService struct {
	db       *gorm.DB
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	store    assets.Store
}

// CreatePostInput carries the fields needed to create a post. Image holds the
// normalized upload destined for the asset host.
type CreatePostInput struct {
	UserID      uint
	Description string
	Image       *assets.Image
}

// NewPostService builds a PostService. The db handle is used for the
// transactional delete cascade.
func NewPostService(
	db *gorm.DB,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	store assets.Store,
) *PostService {
	return &PostService{
		db:       db,
		postRepo: postRepo,
		userRepo: userRepo,
		store:    store,
	}
}

// CreatePost uploads the image to the asset host, snapshots the owner's
// display fields onto the post, and persists it with empty aggregates. The
// snapshot is taken once and never refreshed when the owner edits their
// profile.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, models.NewValidationError("Description is required")
	}
	if in.Image == nil {
		return nil, models.NewValidationError("Image is required")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	asset, err := s.store.Upload(ctx, in.Image)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	post := &models.Post{
		UserID:          user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Location:        user.Location,
		Description:     in.Description,
		PicturePath:     asset.URL,
		UserPicturePath: user.PicturePath,
		ImageID:         asset.ID,
		Likes:           models.LikeMap{},
		Comments:        models.IDList{},
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Get returns a single post by id.
func (s *PostService) Get(ctx context.Context, postID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

// Feed lists posts newest-first with offset pagination and returns the total
// post count.
func (s *PostService) Feed(ctx context.Context, page, pageSize int) ([]*models.Post, int64, error) {
	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	posts, err := s.postRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UserPosts lists one owner's posts with the same ordering and pagination
// contract as the feed.
func (s *PostService) UserPosts(ctx context.Context, userID uint, page, pageSize int) ([]*models.Post, int64, error) {
	total, err := s.postRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	posts, err := s.postRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ToggleLike flips the user's entry in the post's like-map and persists the
// map as a full field replacement. The read-modify-write has no concurrency
// control: concurrent toggles by the same user race and the last writer wins.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.Likes == nil {
		post.Likes = models.LikeMap{}
	}
	post.Likes.Toggle(userID)

	if err := s.postRepo.UpdateLikes(ctx, postID, post.Likes); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete cascades: removes every comment belonging to the post and the post
// record in one transaction, then releases the post's image on the asset
// host. Asset release is best-effort; a failure leaves a dangling asset but
// never a visible post.
func (s *PostService) Delete(ctx context.Context, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewCommentRepository(tx).DeleteByPost(ctx, postID); err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
	if err != nil {
		return asInternal(err)
	}

	cache.InvalidatePost(ctx, postID)

	if post.ImageID != "" {
		if err := s.store.Delete(ctx, post.ImageID); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to release post image asset",
				slog.Uint64("post_id", uint64(postID)),
				slog.String("asset_id", post.ImageID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// asInternal wraps raw store errors while passing already-typed ones through.
func asInternal(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
