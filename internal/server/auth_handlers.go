package server

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"sociogram/internal/assets"
	"sociogram/internal/models"
	"sociogram/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Register handles POST /auth/register. The request is multipart: profile
// fields plus a required picture file. The image is normalized and pushed to
// the asset host before the user row is written, so a stored user always
// carries a resolvable picture URL.
func (s *Server) Register(c *fiber.Ctx) error {
	firstName := strings.TrimSpace(c.FormValue("firstName"))
	lastName := strings.TrimSpace(c.FormValue("lastName"))
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	if firstName == "" || lastName == "" || email == "" || password == "" {
		return models.RespondWithError(c,
			models.NewValidationError("First name, last name, email, and password are required"))
	}
	if err := validation.ValidateName(firstName); err != nil {
		return models.RespondWithError(c, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateName(lastName); err != nil {
		return models.RespondWithError(c, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(email); err != nil {
		return models.RespondWithError(c, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(password); err != nil {
		return models.RespondWithError(c, models.NewValidationError(err.Error()))
	}

	img, err := s.formImage(c, "picture")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	asset, err := s.assetStore.Upload(c.Context(), img)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	friends, err := parseFriends(c.FormValue("friends"))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	user := &models.User{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		Password:    string(hashedPassword),
		PicturePath: asset.URL,
		ImageID:     asset.ID,
		Friends:     friends,
		Location:    c.FormValue("location"),
		Occupation:  c.FormValue("occupation"),
	}

	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		return models.RespondWithError(c, createErr)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /auth/login. A missing account and a wrong password both
// come back as 400, with distinct messages matching the classic API.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Email and password are required"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c,
			models.NewValidationError("User does not exist"))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, models.NewInvalidCredentialsError())
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// formImage reads and normalizes the uploaded image from the named multipart
// field. Errors are already typed for RespondWithError.
func (s *Server) formImage(c *fiber.Ctx, field string) (*assets.Image, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, models.NewValidationError("Picture file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	maxBytes := int64(s.config.AssetMaxUploadMB) * 1024 * 1024
	return assets.Prepare(content, maxBytes)
}

// parseFriends parses an optional comma-separated list of user ids.
func parseFriends(raw string) (models.IDList, error) {
	friends := models.IDList{}
	if strings.TrimSpace(raw) == "" {
		return friends, nil
	}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil || id == 0 {
			return nil, models.NewValidationError("Invalid friends list")
		}
		friends = append(friends, uint(id))
	}
	return friends, nil
}

// generateToken creates a JWT token for the given user ID
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(time.Hour * 24 * 7).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
