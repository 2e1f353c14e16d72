package auth

import (
	"context"

	"github.com/userdeck/userdeck/internal/ability"
	"github.com/userdeck/userdeck/internal/shared"
	"github.com/userdeck/userdeck/internal/users"
)

// UserFinder is the slice of the user store the login flow needs.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
}

// Service wraps authentication business rules: verify a credential,
// hand out a principal token. Authorization is not decided here.
type Service struct {
	finder UserFinder
	store  *TokenStore
	hasher BcryptHasher
}

// NewService constructs a new Service.
func NewService(finder UserFinder, store *TokenStore, hasher BcryptHasher) *Service {
	return &Service{finder: finder, store: store, hasher: hasher}
}

// Login validates email/password credentials and issues a bearer token.
// Any failure collapses into ErrInvalidCredentials so the response does
// not reveal which part was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (string, ability.Principal, error) {
	user, err := s.finder.FindByEmail(ctx, shared.NormalizeEmail(email))
	if err != nil {
		return "", ability.Principal{}, shared.ErrInvalidCredentials
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return "", ability.Principal{}, shared.ErrInvalidCredentials
	}
	principal := ability.Principal{ID: user.ID, Role: user.Role}
	token, err := s.store.Issue(ctx, principal)
	if err != nil {
		return "", ability.Principal{}, err
	}
	return token, principal, nil
}

// Logout revokes a bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.store.Revoke(ctx, token)
}
