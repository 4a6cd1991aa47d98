// Package auth issues and checks the bearer tokens of the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/repository"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const minSecretLen = 16

// UserStore is the part of the user repository the service needs.
type UserStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, u *models.User) error
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// Claims carries the identity of a logged-in user. Subject is the username.
type Claims struct {
	jwt.RegisteredClaims
	Nombre string `json:"nombre"`
}

type LoginResult struct {
	Token     string      `json:"access_token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"usuario"`
}

type Service struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewService(users UserStore, secret []byte, ttl time.Duration, log logger.Logger) (*Service, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLen)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:  users,
		secret: secret,
		ttl:    ttl,
		logger: log.Named("auth"),
		now:    time.Now,
	}, nil
}

// Login checks the password of an active user and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("Login for unknown user", logger.String("username", username))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.Activo {
		s.logger.Warn("Login for inactive user", logger.String("username", username))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Login with wrong password", logger.String("username", username))
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in", logger.String("username", username))
	return &LoginResult{Token: token, TokenType: "bearer", ExpiresAt: expires, User: u}, nil
}

func (s *Service) issue(u models.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Nombre: u.Nombre,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// ParseToken validates a bearer token. Only HS256 is accepted.
func (s *Service) ParseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SeedAdmin creates the first user when the table is empty. It reports
// whether a user was created.
func (s *Service) SeedAdmin(ctx context.Context, username, password, nombre string) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		s.logger.Debug("Users already present, skipping seed", logger.Int("count", n))
		return false, nil
	}
	if username == "" || password == "" {
		s.logger.Warn("No users and no admin credentials configured")
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &models.User{Username: username, Nombre: nombre, PasswordHash: string(hash), Activo: true}
	if err := s.users.Create(ctx, u); err != nil {
		return false, err
	}
	s.logger.Info("Seeded admin user", logger.String("username", username))
	return true, nil
}
