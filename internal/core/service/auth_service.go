package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/port"
)

// AuthService registers users, logs them in and acts as the authorization
// gate that resolves a bearer token into an identity.
type AuthService struct {
	users  port.UserRepository
	tokens port.TokenIssuer
	hasher port.PasswordHasher
}

func NewAuthService(users port.UserRepository, tokens port.TokenIssuer, hasher port.PasswordHasher) *AuthService {
	return &AuthService{users: users, tokens: tokens, hasher: hasher}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	user, err := s.createUser(ctx, name, email, password, domain.RoleCustomer)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(domain.Identity{UserID: user.ID, Role: user.Role})
}

// CreateAdmin is used for seeding; there is no public route that grants admin.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (domain.User, error) {
	return s.createUser(ctx, name, email, password, domain.RoleAdmin)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role domain.Role) (domain.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return domain.User{}, &domain.InputError{Reason: "All fields required"}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return "", domain.ErrInvalidCredentials
	}
	return s.tokens.Issue(domain.Identity{UserID: user.ID, Role: user.Role})
}

// ResolveIdentity maps a presented credential to the caller's identity.
func (s *AuthService) ResolveIdentity(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrMissingToken
	}
	return s.tokens.Verify(token)
}
