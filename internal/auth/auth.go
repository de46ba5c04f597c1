// Package auth issues and verifies the signed tokens that gate the generation endpoints.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hyperjump/clausekit/internal/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinSecretLen is the shortest accepted signing secret, in bytes.
const MinSecretLen = 16

var (
	// ErrInvalidCredentials is returned by Login for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned by Verify for malformed, forged, or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Authenticator checks credentials against the configured users and signs HS256 tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	users  map[string][]byte
	logger *zap.Logger
}

// New builds an Authenticator from cfg. Plain-text passwords are hashed with bcrypt at
// startup. An empty secret is replaced by a random one, so tokens do not survive a restart.
func New(cfg config.AuthConfig, logger *zap.Logger) (*Authenticator, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("auth: generate secret: %w", err)
		}
		logger.Warn("auth secret not configured; using a random per-process secret")
	} else if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("auth: secret must be at least %d bytes", MinSecretLen)
	}

	users := make(map[string][]byte, len(cfg.Users))
	for _, u := range cfg.Users {
		if u.PasswordHash != "" {
			if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
				return nil, fmt.Errorf("auth: user %q: invalid password_hash: %w", u.Username, err)
			}
			users[u.Username] = []byte(u.PasswordHash)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("auth: hash password for %q: %w", u.Username, err)
		}
		users[u.Username] = hash
	}
	if len(users) == 0 {
		logger.Warn("no auth users configured; login will always fail")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Authenticator{secret: secret, ttl: ttl, users: users, logger: logger}, nil
}

// HashPassword returns a bcrypt hash suitable for auth.users[].password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login checks the credentials and returns a signed token for username.
func (a *Authenticator) Login(username, password string) (string, error) {
	hash, ok := a.users[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return a.Issue(username)
}

// Issue signs a token carrying username that expires after the configured TTL.
func (a *Authenticator) Issue(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Username: username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify parses tokenStr and returns its claims. The signing method is pinned to HS256.
func (a *Authenticator) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v (only HS256 allowed)", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
