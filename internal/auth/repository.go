package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemoryAdminRepository is an in-memory implementation of AdminRepository.
// This is intended for MVP/testing. Production should use a database-backed implementation.
type InMemoryAdminRepository struct {
	mu      sync.RWMutex
	admins  map[string]*Admin // keyed by admin ID
	byEmail map[string]string // lowercased email -> adminID
}

// NewInMemoryAdminRepository creates a new in-memory admin repository.
func NewInMemoryAdminRepository() *InMemoryAdminRepository {
	return &InMemoryAdminRepository{
		admins:  make(map[string]*Admin),
		byEmail: make(map[string]string),
	}
}

// FindByEmail finds an admin by email address.
func (r *InMemoryAdminRepository) FindByEmail(_ context.Context, email string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adminID, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrAdminNotFound
	}

	admin, ok := r.admins[adminID]
	if !ok {
		return nil, ErrAdminNotFound
	}

	// Return a copy to avoid mutation
	adminCopy := *admin
	return &adminCopy, nil
}

// FindByID finds an admin by internal ID.
func (r *InMemoryAdminRepository) FindByID(_ context.Context, id string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}

	adminCopy := *admin
	return &adminCopy, nil
}

// Create creates a new admin account.
func (r *InMemoryAdminRepository) Create(_ context.Context, admin *Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	adminCopy := *admin
	r.admins[admin.ID] = &adminCopy
	r.byEmail[strings.ToLower(admin.Email)] = admin.ID

	return nil
}

// InMemoryRefreshTokenRepository is an in-memory implementation of RefreshTokenRepository.
type InMemoryRefreshTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]*RefreshToken // keyed by token string
}

// NewInMemoryRefreshTokenRepository creates a new in-memory refresh token repository.
func NewInMemoryRefreshTokenRepository() *InMemoryRefreshTokenRepository {
	return &InMemoryRefreshTokenRepository{
		tokens: make(map[string]*RefreshToken),
	}
}

// Create stores a new refresh token.
func (r *InMemoryRefreshTokenRepository) Create(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokenCopy := *token
	r.tokens[token.Token] = &tokenCopy

	return nil
}

// FindByToken finds a refresh token by its value.
func (r *InMemoryRefreshTokenRepository) FindByToken(_ context.Context, token string) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, ErrInvalidRefreshToken
	}

	tokenCopy := *rt
	return &tokenCopy, nil
}

// Revoke marks a refresh token as revoked.
func (r *InMemoryRefreshTokenRepository) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return ErrInvalidRefreshToken
	}

	now := time.Now()
	rt.RevokedAt = &now

	return nil
}

// RevokeAllForAdmin revokes all refresh tokens for an admin.
func (r *InMemoryRefreshTokenRepository) RevokeAllForAdmin(_ context.Context, adminID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, rt := range r.tokens {
		if rt.AdminID == adminID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
		}
	}

	return nil
}

// Interface compliance checks
var (
	_ AdminRepository        = (*InMemoryAdminRepository)(nil)
	_ RefreshTokenRepository = (*InMemoryRefreshTokenRepository)(nil)
)
