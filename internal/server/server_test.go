package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"sociogram/internal/cache"
	"sociogram/internal/config"
	"sociogram/internal/database"
	"sociogram/internal/models"
	"sociogram/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDeps struct {
	db    *gorm.DB
	store *testutil.StubAssetStore
}

func newTestServer(t *testing.T) (*Server, *fiber.App, *testDeps) {
	t.Helper()

	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:        strings.Repeat("s", 32),
		Port:             "0",
		Env:              "test",
		ItemsPerPage:     10,
		AssetMaxUploadMB: 10,
	}

	store := testutil.NewStubAssetStore()
	s, err := NewServerWithDeps(cfg, db, nil, store)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{BodyLimit: 30 * 1024 * 1024})
	s.SetupRoutes(app)

	return s, app, &testDeps{db: db, store: store}
}

// pngBytes renders a small in-memory PNG for upload tests.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartBody builds a multipart form with string fields plus an optional
// picture file, returning the body and its content type.
func multipartBody(t *testing.T, fields map[string]string, picture []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if picture != nil {
		part, err := writer.CreateFormFile("picture", "picture.png")
		require.NoError(t, err)
		_, err = part.Write(picture)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func registerUser(t *testing.T, app *fiber.App, email string) *models.User {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"firstName":  "Jane",
		"lastName":   "Doe",
		"email":      email,
		"password":   "hunter2hunter2",
		"location":   "Boston",
		"occupation": "Engineer",
	}, pngBytes(t, 8, 8))

	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	decodeJSON(t, resp, &user)
	return &user
}

func authHeader(t *testing.T, s *Server, userID uint) string {
	t.Helper()
	token, err := s.generateToken(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest), "body: %s", raw)
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegister(t *testing.T) {
	_, app, deps := newTestServer(t)

	user := registerUser(t, app, "jane@example.com")
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Jane", user.FirstName)
	assert.NotEmpty(t, user.PicturePath)
	require.Len(t, deps.store.Uploads, 1)

	// Password never leaves the server.
	body, contentType := multipartBody(t, map[string]string{
		"firstName": "John",
		"lastName":  "Smith",
		"email":     "john@example.com",
		"password":  "hunter2hunter2",
	}, pngBytes(t, 8, 8))
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var raw map[string]any
	decodeJSON(t, resp, &raw)
	assert.NotContains(t, raw, "password")
}

func TestRegister_Validation(t *testing.T) {
	_, app, _ := newTestServer(t)

	t.Run("missing fields", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{
			"firstName": "Jane",
		}, pngBytes(t, 8, 8))
		req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing picture", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{
			"firstName": "Jane",
			"lastName":  "Doe",
			"email":     "nopic@example.com",
			"password":  "hunter2hunter2",
		}, nil)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate email", func(t *testing.T) {
		registerUser(t, app, "dup@example.com")
		body, contentType := multipartBody(t, map[string]string{
			"firstName": "Jane",
			"lastName":  "Doe",
			"email":     "dup@example.com",
			"password":  "hunter2hunter2",
		}, pngBytes(t, 8, 8))
		req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	s, app, _ := newTestServer(t)
	user := registerUser(t, app, "jane@example.com")

	t.Run("success", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/auth/login", fiber.Map{
			"email":    "jane@example.com",
			"password": "hunter2hunter2",
		}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decodeJSON(t, resp, &result)
		require.NotEmpty(t, result.Token)
		assert.Equal(t, "jane@example.com", result.User.Email)

		// The token must identify the logged-in user.
		var claims jwt.RegisteredClaims
		_, err = jwt.ParseWithClaims(result.Token, &claims, func(*jwt.Token) (any, error) {
			return []byte(s.config.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		require.NoError(t, err)
		assert.Equal(t, strconv.FormatUint(uint64(user.ID), 10), claims.Subject)
	})

	t.Run("unknown email", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/auth/login", fiber.Map{
			"email":    "ghost@example.com",
			"password": "hunter2hunter2",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/auth/login", fiber.Map{
			"email":    "jane@example.com",
			"password": "wrong-password",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthRequired(t *testing.T) {
	s, app, _ := newTestServer(t)
	user := registerUser(t, app, "jane@example.com")

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req.Header.Set("Authorization", authHeader(t, s, user.ID))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessCheck(t *testing.T) {
	_, app, _ := newTestServer(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// seedPosts writes posts straight to the store with staggered timestamps so
// ordering assertions are deterministic.
func seedPosts(t *testing.T, deps *testDeps, owner *models.User, n int) []*models.Post {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := &models.Post{
			UserID:          owner.ID,
			FirstName:       owner.FirstName,
			LastName:        owner.LastName,
			Location:        owner.Location,
			Description:     fmt.Sprintf("post %d", i),
			PicturePath:     "https://assets.test/images/p.webp",
			UserPicturePath: owner.PicturePath,
			ImageID:         fmt.Sprintf("images/p-%d.webp", i),
			Likes:           models.LikeMap{},
			Comments:        models.IDList{},
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, deps.db.Create(post).Error)
		posts = append(posts, post)
	}
	return posts
}
