// README: Session service: login/logout passthrough plus token resolution for auth.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

var ErrBadCredentials = errors.New("invalid credentials")

// Authenticator is the backend auth surface the service depends on.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Credentials, error)
	Logout(ctx context.Context) error
}

type Service struct {
	store *Store
	auth  Authenticator
	log   *slog.Logger
}

func NewService(store *Store, auth Authenticator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, auth: auth, log: log}
}

// Login authenticates against the backend and stores the session under a
// fresh device id, which the client presents on subsequent requests.
func (s *Service) Login(ctx context.Context, email, password string) (string, Credentials, error) {
	if email == "" || password == "" {
		return "", Credentials{}, ErrBadCredentials
	}
	creds, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return "", Credentials{}, fmt.Errorf("backend login: %w", err)
	}
	deviceID := uuid.NewString()
	if err := s.store.Set(ctx, deviceID, creds); err != nil {
		return "", Credentials{}, fmt.Errorf("store session: %w", err)
	}
	s.log.Info("session opened", "device_id", deviceID, "user_id", creds.User.ID, "role", creds.User.Role)
	return deviceID, creds, nil
}

// Logout clears the local session; the backend logout is best-effort.
func (s *Service) Logout(ctx context.Context, deviceID string) error {
	if err := s.auth.Logout(ctx); err != nil {
		s.log.Warn("backend logout failed", "device_id", deviceID, "error", err)
	}
	return s.store.Remove(ctx, deviceID)
}

// LogoutByToken resolves the bearer token to its device and closes the
// session.
func (s *Service) LogoutByToken(ctx context.Context, token string) error {
	device, err := s.store.DeviceForToken(ctx, token)
	if err != nil {
		return err
	}
	return s.Logout(ctx, device)
}

// Verify resolves a bearer token to its user. Used by the auth middleware.
func (s *Service) Verify(ctx context.Context, token string) (User, error) {
	device, err := s.store.DeviceForToken(ctx, token)
	if err != nil {
		return User{}, err
	}
	return s.store.User(ctx, device)
}

// TokenForDevice exposes the stored backend token for outgoing calls.
func (s *Service) TokenForDevice(ctx context.Context, deviceID string) (string, error) {
	return s.store.Token(ctx, deviceID)
}
