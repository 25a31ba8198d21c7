package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Predefined service errors.
var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AdminRepository defines the interface for admin account data operations.
type AdminRepository interface {
	// FindByEmail finds an admin by email address.
	FindByEmail(ctx context.Context, email string) (*Admin, error)

	// FindByID finds an admin by internal ID.
	FindByID(ctx context.Context, id string) (*Admin, error)

	// Create creates a new admin account.
	Create(ctx context.Context, admin *Admin) error
}

// RefreshTokenRepository defines the interface for refresh token operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token.
	Create(ctx context.Context, token *RefreshToken) error

	// FindByToken finds a refresh token by its value.
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)

	// Revoke marks a refresh token as revoked.
	Revoke(ctx context.Context, token string) error

	// RevokeAllForAdmin revokes all refresh tokens for an admin.
	RevokeAllForAdmin(ctx context.Context, adminID string) error
}

// Identity is what a validated access token asserts about its bearer.
type Identity struct {
	AdminID string
	Role    Role
}

// Service provides authentication operations.
type Service struct {
	jwtService  *JWTService
	adminRepo   AdminRepository
	refreshRepo RefreshTokenRepository
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService  *JWTService
	AdminRepo   AdminRepository
	RefreshRepo RefreshTokenRepository
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		jwtService:  cfg.JWTService,
		adminRepo:   cfg.AdminRepo,
		refreshRepo: cfg.RefreshRepo,
	}
}

// Login authenticates an admin by email and password and returns API
// tokens. A wrong email and a wrong password produce the same error so
// the endpoint doesn't leak which accounts exist.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validation error: %s", errs[0].Message)
	}

	admin, err := s.adminRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(ctx, admin)
}

// RefreshAccessToken refreshes an access token using a refresh token.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshTokenStr string) (*TokenResponse, error) {
	refreshToken, err := s.refreshRepo.FindByToken(ctx, refreshTokenStr)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if refreshToken.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	admin, err := s.adminRepo.FindByID(ctx, refreshToken.AdminID)
	if err != nil {
		return nil, ErrAdminNotFound
	}

	// Revoke the old refresh token (rotation)
	if err := s.refreshRepo.Revoke(ctx, refreshTokenStr); err != nil {
		return nil, fmt.Errorf("revoking old refresh token: %w", err)
	}

	return s.generateTokens(ctx, admin)
}

// ValidateAccessToken validates an access token and returns the
// identity it asserts.
func (s *Service) ValidateAccessToken(tokenString string) (*Identity, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &Identity{
		AdminID: claims.AdminID,
		Role:    claims.Role,
	}, nil
}

// GetAdmin retrieves an admin by ID.
func (s *Service) GetAdmin(ctx context.Context, adminID string) (*Admin, error) {
	return s.adminRepo.FindByID(ctx, adminID)
}

// RevokeRefreshToken revokes a specific refresh token.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshTokenStr string) error {
	return s.refreshRepo.Revoke(ctx, refreshTokenStr)
}

// RevokeAllTokens revokes all refresh tokens for an admin (logout everywhere).
func (s *Service) RevokeAllTokens(ctx context.Context, adminID string) error {
	return s.refreshRepo.RevokeAllForAdmin(ctx, adminID)
}

// CreateAdmin creates an admin account with a bcrypt-hashed password.
// Account provisioning is an operator action, not an open signup.
func (s *Service) CreateAdmin(ctx context.Context, email, name, password string, role Role) (*Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	admin := &Admin{
		ID:           generateAdminID(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("creating admin: %w", err)
	}

	return admin, nil
}

// generateTokens generates both access and refresh tokens for an admin.
func (s *Service) generateTokens(ctx context.Context, admin *Admin) (*TokenResponse, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(admin)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	refreshToken := &RefreshToken{
		ID:        uuid.New().String(),
		Token:     refreshTokenStr,
		AdminID:   admin.ID,
		ExpiresAt: time.Now().Add(RefreshTokenExpiry),
		CreatedAt: time.Now(),
	}

	if err := s.refreshRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		RefreshToken: refreshTokenStr,
		Admin:        admin,
	}, nil
}

// generateAdminID generates a unique admin ID with prefix.
func generateAdminID() string {
	return "adm_" + uuid.New().String()[:22]
}
