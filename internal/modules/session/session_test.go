// README: Session service tests against an embedded Redis.
package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"kolekta/internal/infra"
)

type stubAuthenticator struct {
	creds       Credentials
	loginErr    error
	logoutCalls int
}

func (s *stubAuthenticator) Login(_ context.Context, _, _ string) (Credentials, error) {
	if s.loginErr != nil {
		return Credentials{}, s.loginErr
	}
	return s.creds, nil
}

func (s *stubAuthenticator) Logout(_ context.Context) error {
	s.logoutCalls++
	return nil
}

func testCreds() Credentials {
	return Credentials{
		Token: "backend-token-1",
		User:  User{ID: "u1", Name: "Driver One", Email: "d1@example.com", Role: "driver", TruckID: "truck-1"},
	}
}

func newTestSession(t *testing.T, auth Authenticator) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewStore(infra.NewRedis(mr.Addr()), time.Hour)
	return NewService(store, auth, nil), mr
}

func TestLoginStoresSessionAndVerifyResolvesUser(t *testing.T) {
	svc, _ := newTestSession(t, &stubAuthenticator{creds: testCreds()})
	ctx := context.Background()

	deviceID, creds, err := svc.Login(ctx, "d1@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if deviceID == "" || creds.Token != "backend-token-1" {
		t.Fatalf("device %q creds %+v", deviceID, creds)
	}

	user, err := svc.Verify(ctx, "backend-token-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.ID != "u1" || user.TruckID != "truck-1" {
		t.Errorf("user = %+v", user)
	}

	tok, err := svc.TokenForDevice(ctx, deviceID)
	if err != nil || tok != "backend-token-1" {
		t.Errorf("token for device = %q, %v", tok, err)
	}
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	svc, _ := newTestSession(t, &stubAuthenticator{creds: testCreds()})
	if _, _, err := svc.Login(context.Background(), "", "secret"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "d1@example.com", ""); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
}

func TestLoginBackendFailure(t *testing.T) {
	svc, _ := newTestSession(t, &stubAuthenticator{loginErr: errors.New("401")})
	if _, _, err := svc.Login(context.Background(), "d1@example.com", "wrong"); err == nil {
		t.Fatal("expected login error")
	}
}

func TestLogoutByTokenRemovesSession(t *testing.T) {
	auth := &stubAuthenticator{creds: testCreds()}
	svc, _ := newTestSession(t, auth)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, "d1@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.LogoutByToken(ctx, "backend-token-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if auth.logoutCalls != 1 {
		t.Errorf("backend logout calls = %d, want 1", auth.logoutCalls)
	}
	if _, err := svc.Verify(ctx, "backend-token-1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after logout, got %v", err)
	}
}

func TestSessionExpires(t *testing.T) {
	svc, mr := newTestSession(t, &stubAuthenticator{creds: testCreds()})
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, "d1@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	if _, err := svc.Verify(ctx, "backend-token-1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after expiry, got %v", err)
	}
}
