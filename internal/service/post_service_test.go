package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sociogram/internal/assets"
	"sociogram/internal/cache"
	"sociogram/internal/database"
	"sociogram/internal/models"
	"sociogram/internal/repository"
	"sociogram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db          *gorm.DB
	store       *testutil.StubAssetStore
	posts       *PostService
	comments    *CommentService
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Cache no-ops with a nil client; clear any client a prior test installed.
	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	store := testutil.NewStubAssetStore()

	return &testEnv{
		db:          db,
		store:       store,
		posts:       NewPostService(db, postRepo, userRepo, store),
		comments:    NewCommentService(db, commentRepo, postRepo, userRepo),
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
}

func (e *testEnv) createUser(t *testing.T, firstName, lastName string) *models.User {
	t.Helper()
	user := &models.User{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       fmt.Sprintf("%s.%s@example.com", firstName, lastName),
		Password:    "hashed",
		PicturePath: "https://assets.example.com/images/u.webp",
		Location:    "Boston",
		Occupation:  "Engineer",
		Friends:     models.IDList{},
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createPost(t *testing.T, owner *models.User, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID:          owner.ID,
		FirstName:       owner.FirstName,
		LastName:        owner.LastName,
		Location:        owner.Location,
		Description:     "a post",
		PicturePath:     "https://assets.example.com/images/p.webp",
		UserPicturePath: owner.PicturePath,
		ImageID:         "images/p.webp",
		Likes:           models.LikeMap{},
		Comments:        models.IDList{},
		CreatedAt:       createdAt,
	}
	require.NoError(t, e.db.Create(post).Error)
	return post
}

func testImage() *assets.Image {
	return &assets.Image{Data: []byte{0x52, 0x49, 0x46, 0x46}, ContentType: "image/webp"}
}

func TestPostService_CreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Jane", "Doe")

	post, err := env.posts.CreatePost(ctx, CreatePostInput{
		UserID:      owner.ID,
		Description: "first light",
		Image:       testImage(),
	})
	require.NoError(t, err)

	assert.NotZero(t, post.ID)
	assert.Equal(t, owner.ID, post.UserID)
	assert.Equal(t, "Jane", post.FirstName)
	assert.Equal(t, "Doe", post.LastName)
	assert.Equal(t, owner.Location, post.Location)
	assert.Equal(t, owner.PicturePath, post.UserPicturePath)
	assert.NotEmpty(t, post.PicturePath)
	assert.NotEmpty(t, post.ImageID)
	assert.Empty(t, post.Likes)
	assert.Empty(t, post.Comments)

	require.Len(t, env.store.Uploads, 1)
	assert.Equal(t, post.ImageID, env.store.Uploads[0])
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Jane", "Doe")

	t.Run("empty description", func(t *testing.T) {
		_, err := env.posts.CreatePost(ctx, CreatePostInput{
			UserID: owner.ID,
			Image:  testImage(),
		})
		assertValidationError(t, err)
	})

	t.Run("missing image", func(t *testing.T) {
		_, err := env.posts.CreatePost(ctx, CreatePostInput{
			UserID:      owner.ID,
			Description: "no picture",
		})
		assertValidationError(t, err)
	})

	t.Run("unknown owner", func(t *testing.T) {
		_, err := env.posts.CreatePost(ctx, CreatePostInput{
			UserID:      9999,
			Description: "ghost",
			Image:       testImage(),
		})
		assertNotFoundError(t, err)
	})
}

func TestPostService_CreatePost_SnapshotDoesNotRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Jane", "Doe")

	post, err := env.posts.CreatePost(ctx, CreatePostInput{
		UserID:      owner.ID,
		Description: "before rename",
		Image:       testImage(),
	})
	require.NoError(t, err)

	owner.FirstName = "Janet"
	require.NoError(t, env.userRepo.Update(ctx, owner))

	got, err := env.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
}

func TestPostService_ToggleLike_Involution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Jane", "Doe")
	liker := env.createUser(t, "John", "Smith")
	post := env.createPost(t, owner, time.Now())

	liked, err := env.posts.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked.Likes.Liked(liker.ID))

	// Persisted, not just in-memory.
	got, err := env.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, got.Likes.Liked(liker.ID))

	// Second toggle removes the entry entirely.
	unliked, err := env.posts.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, unliked.Likes.Liked(liker.ID))
	assert.NotContains(t, unliked.Likes, unliked.Likes.Key(liker.ID))

	got, err = env.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)
}

func TestPostService_ToggleLike_MissingPost(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.posts.ToggleLike(context.Background(), 404, 1)
	assertNotFoundError(t, err)
}

func TestPostService_Feed_Pagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Jane", "Doe")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		env.createPost(t, owner, base.Add(time.Duration(i)*time.Minute))
	}

	page1, total, err := env.posts.Feed(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	require.Len(t, page1, 10)

	page2, total, err := env.posts.Feed(ctx, 2, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	require.Len(t, page2, 5)

	// Newest first across the page boundary.
	assert.True(t, page1[0].CreatedAt.After(page1[9].CreatedAt))
	assert.True(t, page1[9].CreatedAt.After(page2[0].CreatedAt))

	empty, total, err := env.posts.Feed(ctx, 3, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	assert.Empty(t, empty)
}

func TestPostService_UserPosts_FiltersByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jane := env.createUser(t, "Jane", "Doe")
	john := env.createUser(t, "John", "Smith")

	now := time.Now()
	env.createPost(t, jane, now.Add(-3*time.Minute))
	env.createPost(t, john, now.Add(-2*time.Minute))
	env.createPost(t, jane, now.Add(-time.Minute))

	posts, total, err := env.posts.UserPosts(ctx, jane.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.Equal(t, jane.ID, p.UserID)
	}
}

func TestPostService_Delete_Cascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Jane", "Doe")
	commenter := env.createUser(t, "John", "Smith")
	post := env.createPost(t, owner, time.Now())
	other := env.createPost(t, owner, time.Now())

	_, err := env.comments.AddComment(ctx, post.ID, commenter.ID, "nice")
	require.NoError(t, err)
	_, err = env.comments.AddComment(ctx, post.ID, commenter.ID, "very nice")
	require.NoError(t, err)
	_, err = env.comments.AddComment(ctx, other.ID, commenter.ID, "unrelated")
	require.NoError(t, err)

	require.NoError(t, env.posts.Delete(ctx, post.ID))

	_, err = env.posts.Get(ctx, post.ID)
	assertNotFoundError(t, err)

	// The post's comments went with it; the other post's survive.
	count, err := env.commentRepo.CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	count, err = env.commentRepo.CountByPost(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// The post image was released on the asset host.
	assert.Contains(t, env.store.Deletes, post.ImageID)
}

func TestPostService_Delete_MissingPost(t *testing.T) {
	env := newTestEnv(t)
	err := env.posts.Delete(context.Background(), 404)
	assertNotFoundError(t, err)
	assert.Empty(t, env.store.Deletes)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
