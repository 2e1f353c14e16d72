package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/userdeck/userdeck/internal/ability"
	"github.com/userdeck/userdeck/internal/shared"
)

// TokenStore keeps bearer tokens in Redis. A token maps to the principal
// it was issued for and expires with the configured TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

type tokenPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// TTL exposes the configured token lifetime.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

// Issue creates a fresh token bound to the principal.
func (s *TokenStore) Issue(ctx context.Context, p ability.Principal) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(tokenPayload{UserID: p.ID.String(), Role: string(p.Role)})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.redisKey(token), data, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the principal a token was issued for.
func (s *TokenStore) Resolve(ctx context.Context, token string) (ability.Principal, error) {
	if token == "" {
		return ability.Principal{}, shared.ErrTokenUnknown
	}
	data, err := s.client.Get(ctx, s.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ability.Principal{}, shared.ErrTokenUnknown
		}
		return ability.Principal{}, err
	}
	var stored tokenPayload
	if err := json.Unmarshal(data, &stored); err != nil {
		return ability.Principal{}, err
	}
	id, err := uuid.Parse(stored.UserID)
	if err != nil {
		return ability.Principal{}, shared.ErrTokenUnknown
	}
	role := ability.Role(stored.Role)
	if !role.Valid() {
		return ability.Principal{}, shared.ErrTokenUnknown
	}
	return ability.Principal{ID: id, Role: role}, nil
}

// Revoke invalidates a token. Revoking an unknown token is not an error.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *TokenStore) redisKey(token string) string {
	return "token:" + token
}
