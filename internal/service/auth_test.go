package service

import (
	"errors"
	"testing"
	"time"

	"aihouse/internal/config"
	"aihouse/internal/model"
)

type fakeUserSource struct {
	user       *model.User
	lastLogins int
}

func (f *fakeUserSource) GetUserByUsername(username string) (*model.User, error) {
	if f.user == nil || f.user.Username != username {
		return nil, errors.New("not found")
	}
	u := *f.user
	return &u, nil
}

func (f *fakeUserSource) UpdateLastLogin(userID int64) error {
	f.lastLogins++
	return nil
}

func testAuthService(t *testing.T, users *fakeUserSource) *AuthService {
	t.Helper()
	return NewAuthService(&config.AuthConfig{
		JWTSecret:          "test-secret",
		TokenExpireMinutes: 60,
		LoginMaxAttempts:   3,
		LoginLockoutMin:    15,
	}, users)
}

func testUser(t *testing.T) *model.User {
	t.Helper()
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	return &model.User{
		ID:           1,
		Username:     "admin",
		PasswordHash: hash,
		IsActive:     true,
	}
}

func TestLoginAndVerifyToken(t *testing.T) {
	users := &fakeUserSource{user: testUser(t)}
	auth := testAuthService(t, users)

	resp, err := auth.Login("admin", "correct-horse", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("AccessToken is empty")
	}
	if resp.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want bearer", resp.TokenType)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", resp.ExpiresIn)
	}
	if users.lastLogins != 1 {
		t.Errorf("last login updates = %d, want 1", users.lastLogins)
	}

	username, err := auth.VerifyToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if username != "admin" {
		t.Errorf("VerifyToken() username = %q, want admin", username)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	auth := testAuthService(t, &fakeUserSource{user: testUser(t)})

	if _, err := auth.Login("admin", "wrong", "10.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	auth := testAuthService(t, &fakeUserSource{})

	if _, err := auth.Login("ghost", "whatever", "10.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	auth := testAuthService(t, &fakeUserSource{user: testUser(t)})

	for i := 0; i < 3; i++ {
		if _, err := auth.Login("admin", "wrong", "10.0.0.2"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: error = %v, want ErrInvalidCredentials", i, err)
		}
	}

	// locked out now, even with the right password
	if _, err := auth.Login("admin", "correct-horse", "10.0.0.2"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("Login() error = %v, want ErrTooManyAttempts", err)
	}

	// other IPs are unaffected
	if _, err := auth.Login("admin", "correct-horse", "10.0.0.3"); err != nil {
		t.Fatalf("Login() from clean IP error = %v", err)
	}
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	auth := testAuthService(t, &fakeUserSource{user: testUser(t)})

	for i := 0; i < 2; i++ {
		auth.Login("admin", "wrong", "10.0.0.4")
	}
	if _, err := auth.Login("admin", "correct-horse", "10.0.0.4"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	// counter reset, two more failures stay under the limit
	for i := 0; i < 2; i++ {
		if _, err := auth.Login("admin", "wrong", "10.0.0.4"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("post-reset attempt %d: error = %v, want ErrInvalidCredentials", i, err)
		}
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	auth := testAuthService(t, &fakeUserSource{})

	for _, token := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		if _, err := auth.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyToken(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	users := &fakeUserSource{user: testUser(t)}
	auth := NewAuthService(&config.AuthConfig{
		JWTSecret:          "test-secret",
		TokenExpireMinutes: 0,
		LoginMaxAttempts:   3,
		LoginLockoutMin:    15,
	}, users)

	resp, err := auth.Login("admin", "correct-horse", "10.0.0.5")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := auth.VerifyToken(resp.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyToken() error = %v, want ErrInvalidToken for expired token", err)
	}
}
