package service

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"aihouse/internal/config"
	"aihouse/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// userSource is the repository surface AuthService needs.
type userSource interface {
	GetUserByUsername(username string) (*model.User, error)
	UpdateLastLogin(userID int64) error
}

// AuthService issues and verifies JWT access tokens and guards login
// against brute force with a per-IP limiter.
type AuthService struct {
	cfg     *config.AuthConfig
	users   userSource
	limiter *loginRateLimiter
}

func NewAuthService(cfg *config.AuthConfig, users userSource) *AuthService {
	return &AuthService{
		cfg:     cfg,
		users:   users,
		limiter: newLoginRateLimiter(cfg.LoginMaxAttempts, time.Duration(cfg.LoginLockoutMin)*time.Minute),
	}
}

// Login checks credentials and returns a signed token. Failed attempts
// count against the caller's IP; a locked-out IP is rejected before the
// password is even checked.
func (s *AuthService) Login(username, password, clientIP string) (*model.LoginResponse, error) {
	if !s.limiter.Allow(clientIP) {
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		s.limiter.RecordFailure(clientIP)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.limiter.RecordFailure(clientIP)
		return nil, ErrInvalidCredentials
	}

	s.limiter.Reset(clientIP)

	token, expiresIn, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if err := s.users.UpdateLastLogin(user.ID); err != nil {
		log.Printf("failed to update last login for %s: %v", user.Username, err)
	}

	return &model.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
		User:        *user,
	}, nil
}

func (s *AuthService) issueToken(user *model.User) (string, int, error) {
	expire := time.Duration(s.cfg.TokenExpireMinutes) * time.Minute
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      fmt.Sprintf("%d", user.ID),
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(expire).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}
	return signed, int(expire.Seconds()), nil
}

// VerifyToken validates a signed token and returns its username claim.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", ErrInvalidToken
	}
	return username, nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// loginRateLimiter tracks recent login failures per client IP and locks an
// IP out once it exceeds maxAttempts failures within the window.
type loginRateLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	failures    map[string][]time.Time
}

func newLoginRateLimiter(maxAttempts int, window time.Duration) *loginRateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &loginRateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		failures:    map[string][]time.Time{},
	}
}

func (l *loginRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(ip)) < l.maxAttempts
}

func (l *loginRateLimiter) RecordFailure(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[ip] = append(l.prune(ip), time.Now())
}

func (l *loginRateLimiter) Reset(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, ip)
}

// prune drops failures older than the window. Caller holds the lock.
func (l *loginRateLimiter) prune(ip string) []time.Time {
	cutoff := time.Now().Add(-l.window)
	kept := l.failures[ip][:0]
	for _, t := range l.failures[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, ip)
		return nil
	}
	l.failures[ip] = kept
	return kept
}
