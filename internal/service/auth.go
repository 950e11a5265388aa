package service

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// AuthService issues and validates bearer tokens and manages credentials.
type AuthService struct {
	db        *gorm.DB
	jwtSecret string
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: jwtSecret,
	}
}

// RegisterInput carries the fields required to create a user account.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// Register creates a new user account.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	if strings.EqualFold(input.Username, "me") {
		return nil, NewValidationError("username", "username \"me\" is not allowed")
	}
	if !usernamePattern.MatchString(input.Username) {
		return nil, NewValidationError("username", "username contains invalid characters")
	}
	if err := validatePassword("password", input.Password); err != nil {
		return nil, err
	}

	var existing models.User
	if err := s.db.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return nil, NewValidationError("email", "user with this email already exists")
	}
	if err := s.db.Where("username = ?", input.Username).First(&existing).Error; err == nil {
		return nil, NewValidationError("username", "user with this username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        input.Email,
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}

	if err := s.db.Create(&user).Error; err != nil {
		// Concurrent registration with the same email or username: the
		// constraint decides, the loser gets a validation error.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("username", "user already exists")
		}
		return nil, err
	}

	return &user, nil
}

// Login checks credentials and returns a signed token.
func (s *AuthService) Login(email, password string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	return s.GenerateToken(&middleware.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
	})
}

// SetPassword replaces the user's password after verifying the current one.
func (s *AuthService) SetPassword(userID uint, currentPassword, newPassword string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return NewValidationError("current_password", "incorrect current password")
	}
	if err := validatePassword("new_password", newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.Model(&user).Update("password_hash", string(hashedPassword)).Error
}

// GenerateToken signs a token for the given claims.
func (s *AuthService) GenerateToken(claims *middleware.TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses a signed token and extracts the caller identity.
func (s *AuthService) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID < 1 {
		return nil, errors.New("invalid token claims")
	}
	username, _ := claims["username"].(string)

	return &middleware.TokenClaims{
		UserID:   uint(userID),
		Username: username,
	}, nil
}

// validatePassword enforces the password policy: at least eight characters
// and not entirely numeric.
func validatePassword(field, password string) error {
	if len(password) < 8 {
		return NewValidationError(field, "password must be at least 8 characters long")
	}
	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return NewValidationError(field, "password cannot be entirely numeric")
	}
	return nil
}
