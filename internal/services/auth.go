package services

import (
	"errors"
	"ticketdesk/internal/config"
	"ticketdesk/internal/models"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username or email already registered")
)

type AuthService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// HashPassword hashes a password using bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.Security.BcryptCost)
	return string(bytes), err
}

// VerifyPassword verifies a password against a hash
func (s *AuthService) VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// Register creates a new user account. Username and email are each unique
// across all users; a clash on either returns ErrUserExists.
func (s *AuthService) Register(username, email, password string, isAdmin bool) (*models.User, error) {
	var existing models.User
	if err := models.DB.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		IsAdmin:      isAdmin,
	}

	if err := models.DB.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies credentials and returns the user. Unknown username and
// wrong password both map to ErrInvalidCredentials so callers cannot tell
// which part failed.
func (s *AuthService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := models.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetUser returns a user by ID
func (s *AuthService) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := models.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateDefaultAdmin creates the bootstrap admin account when the users table
// is empty.
func (s *AuthService) CreateDefaultAdmin() error {
	var count int64
	models.DB.Model(&models.User{}).Count(&count)

	if count == 0 && s.cfg.DefaultAdmin.Username != "" {
		_, err := s.Register(
			s.cfg.DefaultAdmin.Username,
			s.cfg.DefaultAdmin.Email,
			s.cfg.DefaultAdmin.Password,
			true,
		)
		return err
	}

	return nil
}

// CreateSession creates a new session record
func (s *AuthService) CreateSession(userID uint, token string, expiresAt time.Time) error {
	session := &models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	return models.DB.Create(session).Error
}

// GetSession retrieves a session by token
func (s *AuthService) GetSession(token string) (*models.Session, error) {
	var session models.Session
	if err := models.DB.Where("token = ? AND expires_at > ?", token, time.Now()).Preload("User").First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession deletes a session
func (s *AuthService) DeleteSession(token string) error {
	return models.DB.Where("token = ?", token).Delete(&models.Session{}).Error
}

// DeleteExpiredSessions removes expired sessions
func (s *AuthService) DeleteExpiredSessions() error {
	return models.DB.Where("expires_at < ?", time.Now()).Delete(&models.Session{}).Error
}
