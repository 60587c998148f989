package repository

import (
	"context"
	"regexp"
	"testing"

	"sociogram/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	t.Run("scans JSON aggregate columns", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "user_id", "first_name", "likes", "comments"}).
			AddRow(1, 7, "Jane", `{"3":true}`, `[10,11]`)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
			WithArgs(1, 1).
			WillReturnRows(rows)

		post, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.True(t, post.Likes.Liked(3))
		assert.Equal(t, models.IDList{10, 11}, post.Comments)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1`)).
			WithArgs(99, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.GetByID(ctx, 99)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List_OrdersAndPaginates(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	rows := sqlmock.NewRows([]string{"id", "description"}).
		AddRow(3, "newest").
		AddRow(2, "older")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."deleted_at" IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2`)).
		WithArgs(10, 10).
		WillReturnRows(rows)

	posts, err := repo.List(context.Background(), 10, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "newest", posts[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListByUser(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id"}).AddRow(1, 7)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE user_id = $1 AND "posts"."deleted_at" IS NULL ORDER BY created_at DESC LIMIT $2 OFFSET $3`)).
		WithArgs(7, 10, 0).
		WillReturnRows(rows)

	posts, err := repo.ListByUser(context.Background(), 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.EqualValues(t, 7, posts[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Count(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts" WHERE "posts"."deleted_at" IS NULL`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(15))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 15, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_UpdateLikes_WritesFullField(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "likes"=$1,"updated_at"=$2 WHERE id = $3 AND "posts"."deleted_at" IS NULL`)).
		WithArgs(`{"3":true}`, sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateLikes(context.Background(), 1, models.LikeMap{"3": true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_UpdateComments_WritesFullField(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "comments"=$1,"updated_at"=$2 WHERE id = $3 AND "posts"."deleted_at" IS NULL`)).
		WithArgs(`[10,11,12]`, sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateComments(context.Background(), 1, models.IDList{10, 11, 12})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
