// README: Session store backed by Redis (token and user per device, token reverse index).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix   = "sessions:token:%s"
	userKeyPrefix    = "sessions:user:%s"
	byTokenKeyPrefix = "sessions:bytoken:%s"
)

var ErrNoSession = errors.New("no session")

type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(r *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: r, ttl: ttl}
}

// Set stores the device's token and user and indexes the token back to the
// device so bearer auth can resolve it.
func (s *Store) Set(ctx context.Context, deviceID string, creds Credentials) error {
	userData, err := json.Marshal(creds.User)
	if err != nil {
		return err
	}
	pipe := s.redis.Pipeline()
	pipe.Set(ctx, tokenKey(deviceID), creds.Token, s.ttl)
	pipe.Set(ctx, userKey(deviceID), userData, s.ttl)
	pipe.Set(ctx, byTokenKey(creds.Token), deviceID, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) Token(ctx context.Context, deviceID string) (string, error) {
	tok, err := s.redis.Get(ctx, tokenKey(deviceID)).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	return tok, err
}

func (s *Store) User(ctx context.Context, deviceID string) (User, error) {
	data, err := s.redis.Get(ctx, userKey(deviceID)).Result()
	if err == redis.Nil {
		return User{}, ErrNoSession
	}
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// DeviceForToken resolves a bearer token to its device, or ErrNoSession.
func (s *Store) DeviceForToken(ctx context.Context, token string) (string, error) {
	device, err := s.redis.Get(ctx, byTokenKey(token)).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	return device, err
}

// Remove clears the device's session including the token reverse index.
func (s *Store) Remove(ctx context.Context, deviceID string) error {
	tok, err := s.Token(ctx, deviceID)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	pipe := s.redis.Pipeline()
	pipe.Del(ctx, tokenKey(deviceID), userKey(deviceID))
	if tok != "" {
		pipe.Del(ctx, byTokenKey(tok))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func tokenKey(deviceID string) string { return fmt.Sprintf(tokenKeyPrefix, deviceID) }
func userKey(deviceID string) string  { return fmt.Sprintf(userKeyPrefix, deviceID) }
func byTokenKey(token string) string  { return fmt.Sprintf(byTokenKeyPrefix, token) }
