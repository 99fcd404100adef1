// Package session turns bearer tokens into the authenticated user's session
package session

import (
	"errors"
	"fmt"
	"time"

	model "barter-exchange/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is malformed, badly signed or lacks a user
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired
	ErrExpiredToken = errors.New("token has expired")
)

// Config holds JWT configuration
type Config struct {
	SecretKey string
	Issuer    string
	TokenTTL  time.Duration
}

// Claims carries the session in the token
type Claims struct {
	UserID  string `json:"user_id"`
	Premium bool   `json:"premium"`
	jwt.RegisteredClaims
}

// Manager issues and validates HS256 session tokens
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager creates a Manager
func NewManager(config Config) (*Manager, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("session: empty signing secret")
	}
	if config.TokenTTL <= 0 {
		return nil, fmt.Errorf("session: token ttl must be positive, got %s", config.TokenTTL)
	}
	return &Manager{config: config, now: time.Now}, nil
}

// Issue signs a token for s
func (m *Manager) Issue(s model.Session) (string, error) {
	if s.UserID == "" {
		return "", fmt.Errorf("session: %w - no user id", ErrInvalidToken)
	}

	now := m.now()
	claims := Claims{
		UserID:  s.UserID,
		Premium: s.Premium,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   s.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// Validate checks the token and returns the session it carries
func (m *Manager) Validate(tokenString string) (model.Session, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(m.config.SecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Session{}, ErrExpiredToken
		}
		return model.Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return model.Session{}, ErrInvalidToken
	}

	return model.Session{UserID: claims.UserID, Premium: claims.Premium}, nil
}
