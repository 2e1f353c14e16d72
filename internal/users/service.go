package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/userdeck/userdeck/internal/ability"
	"github.com/userdeck/userdeck/internal/platform/httpx"
	"github.com/userdeck/userdeck/internal/shared"
)

// PasswordHasher turns a plaintext secret into an opaque stored form.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Service is the single enforcement point for user CRUD. Every operation
// finalizes its permit/deny verdict before touching the repository, so a
// denied request never reaches storage. The service holds no mutable
// authorization state.
type Service struct {
	repo   RepositoryPort
	hasher PasswordHasher
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// errOwnRecordOnly carries the precise refusal for ownership failures,
// distinct from the generic rule-scan refusal.
func errOwnRecordOnly(verb string) error {
	return fmt.Errorf("%w: you may only %s your own record", httpx.ErrForbidden, verb)
}

func sanitize(u User) User {
	u.PasswordHash = ""
	return u
}

// List returns all users, password material stripped.
func (s *Service) List(ctx context.Context, p ability.Principal) ([]User, error) {
	if ability.For(p).Cannot(ability.ActionRead, ability.SubjectUser) {
		return nil, fmt.Errorf("%w: role %s may not list users", httpx.ErrForbidden, p.Role)
	}
	list, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]User, len(list))
	for i, u := range list {
		out[i] = sanitize(u)
	}
	return out, nil
}

// Get returns one user by id. For the plain user role ownership is
// checked against the requested id before any rule scan or repository
// access.
func (s *Service) Get(ctx context.Context, p ability.Principal, id uuid.UUID) (*User, error) {
	if p.Role == ability.RoleUser && p.ID != id {
		return nil, errOwnRecordOnly("access")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ability.For(p).Cannot(ability.ActionRead, ability.SubjectUser, ability.OnRecord(current.Resource())) {
		return nil, fmt.Errorf("%w: role %s may not read this user", httpx.ErrForbidden, p.Role)
	}
	u := sanitize(*current)
	return &u, nil
}

// GetSelf returns the principal's own record.
func (s *Service) GetSelf(ctx context.Context, p ability.Principal) (*User, error) {
	return s.Get(ctx, p, p.ID)
}

// Create registers a new user. Requires the create grant; email and
// password are mandatory and the normalized email must be unused.
func (s *Service) Create(ctx context.Context, p ability.Principal, req CreateRequest) (*User, error) {
	if ability.For(p).Cannot(ability.ActionCreate, ability.SubjectUser) {
		return nil, fmt.Errorf("%w: role %s may not create users", httpx.ErrForbidden, p.Role)
	}

	email := shared.NormalizeEmail(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", httpx.ErrValidation)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", httpx.ErrValidation)
	}
	role := req.Role
	if role == "" {
		role = ability.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
	} else if !errors.Is(err, httpx.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.Insert(ctx, User{
		ID:           uuid.New(),
		Name:         shared.NormalizeName(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	u := sanitize(*stored)
	return &u, nil
}

// Update applies a partial update. The requested fields are reduced to
// the set that actually changes; an empty reduction is a successful
// no-op returning the current record with zero writes. Every remaining
// field must pass the rule check or the whole update is refused.
func (s *Service) Update(ctx context.Context, p ability.Principal, id uuid.UUID, req UpdateRequest) (*User, error) {
	if p.Role == ability.RoleUser && p.ID != id {
		return nil, errOwnRecordOnly("edit")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Password != nil && *req.Password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", httpx.ErrValidation)
	}

	ch := Diff(*current, req)
	if len(ch) == 0 {
		u := sanitize(*current)
		return &u, nil
	}

	if role, ok := ch[ability.FieldRole]; ok && !ability.Role(role).Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}

	a := ability.For(p)
	rec := ability.OnRecord(current.Resource())
	for field := range ch {
		if a.Cannot(ability.ActionUpdate, ability.SubjectUser, ability.OnField(field), rec) {
			return nil, fmt.Errorf("%w: field %q may not be changed by role %s", httpx.ErrForbidden, field, p.Role)
		}
	}

	if plaintext, ok := ch[ability.FieldPassword]; ok {
		hash, err := s.hasher.Hash(plaintext)
		if err != nil {
			return nil, err
		}
		ch[ability.FieldPassword] = hash
	}

	stored, err := s.repo.ApplyUpdate(ctx, id, ch)
	if err != nil {
		return nil, err
	}
	u := sanitize(*stored)
	return &u, nil
}

// Delete removes a user. Only roles holding the delete grant may do so.
func (s *Service) Delete(ctx context.Context, p ability.Principal, id uuid.UUID) error {
	if ability.For(p).Cannot(ability.ActionDelete, ability.SubjectUser) {
		return fmt.Errorf("%w: role %s may not delete users", httpx.ErrForbidden, p.Role)
	}
	return s.repo.Remove(ctx, id)
}
