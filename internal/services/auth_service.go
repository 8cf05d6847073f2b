package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yukikurage/story-relay-api/internal/auth"
	"github.com/yukikurage/story-relay-api/internal/constants"
	"github.com/yukikurage/story-relay-api/internal/logging"
	"github.com/yukikurage/story-relay-api/internal/models"
	"github.com/yukikurage/story-relay-api/internal/repository"
	"github.com/yukikurage/story-relay-api/internal/storage"
	"github.com/yukikurage/story-relay-api/internal/utils"
	"github.com/yukikurage/story-relay-api/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("a user with that username already exists")
	ErrInvalidUsername      = errors.New("username must be 3-150 characters of letters, digits and @/./+/-/_")
	ErrInvalidEmail         = errors.New("enter a valid email address")
	ErrInvalidCredentials   = errors.New("no active account found with the given credentials")
	ErrPasswordTooShort     = fmt.Errorf("password must be at least %d characters", constants.MinPasswordLength)
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrInvalidRefreshToken  = errors.New("token is invalid or expired")
	ErrFailedToIssueTokens  = errors.New("failed to issue tokens")
	ErrRefreshTokenNotOwned = errors.New("token does not belong to the current user")
)

const refreshTokenBytes = 32

var validate = validator.New()

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.RefreshTokenRepository
	issuer     *auth.TokenIssuer
	refreshTTL time.Duration
	exports    storage.Backend
	logger     logging.Logger
}

// NewAuthService creates a new AuthService. exports is where the files of a
// deleted user's stories are removed from.
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.RefreshTokenRepository, issuer *auth.TokenIssuer, refreshTTL time.Duration, exports storage.Backend, logger logging.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		exports:    exports,
		logger:     logger,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair is returned on login.
type TokenPair struct {
	Access  string
	Refresh string
}

// Register creates a new user with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if n := utf8.RuneCountInString(username); n < constants.MinUsernameLength || n > constants.MaxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if err := validation.Username(username); err != nil {
		return nil, ErrInvalidUsername
	}

	email := strings.TrimSpace(input.Email)
	if err := validate.Var(email, "required,email,max=255"); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, err := s.issuer.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, ErrFailedToIssueTokens
	}

	refresh, err := utils.RandomHex(refreshTokenBytes)
	if err != nil {
		return nil, ErrFailedToIssueTokens
	}

	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: utils.HashToken(refresh),
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (string, error) {
	token, err := s.findLiveToken(ctx, refresh)
	if err != nil {
		return "", err
	}

	access, err := s.issuer.GenerateAccessToken(token.UserID)
	if err != nil {
		return "", ErrFailedToIssueTokens
	}
	return access, nil
}

// Logout blacklists the caller's refresh token.
func (s *AuthService) Logout(ctx context.Context, userID uint64, refresh string) error {
	token, err := s.findLiveToken(ctx, refresh)
	if err != nil {
		return err
	}
	if token.UserID != userID {
		return ErrRefreshTokenNotOwned
	}

	revoked, err := s.tokenRepo.Revoke(ctx, token.ID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if !revoked {
		return ErrInvalidRefreshToken
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// DeleteUser removes the user and everything they own.
func (s *AuthService) DeleteUser(ctx context.Context, id uint64) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	files, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	removeExportFiles(ctx, s.exports, s.logger, files)
	return nil
}

func (s *AuthService) findLiveToken(ctx context.Context, refresh string) (*models.RefreshToken, error) {
	refresh = strings.TrimSpace(refresh)
	if refresh == "" {
		return nil, ErrRefreshTokenRequired
	}

	token, err := s.tokenRepo.FindByHash(ctx, utils.HashToken(refresh))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if token.RevokedAt != nil || !time.Now().Before(token.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}
	return token, nil
}
