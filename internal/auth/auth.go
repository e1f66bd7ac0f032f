package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

const roleAdmin = "admin"

// Manager issues and verifies administrator tokens. The admin identity
// comes from configuration, not from a hardcoded credential.
type Manager struct {
	adminEmail    string
	adminPassHash string
	secret        []byte
	ttl           time.Duration
	now           func() time.Time
}

func NewManager(adminEmail, adminPassHash, secret string, ttl time.Duration) *Manager {
	return &Manager{
		adminEmail:    adminEmail,
		adminPassHash: adminPassHash,
		secret:        []byte(secret),
		ttl:           ttl,
		now:           time.Now,
	}
}

// Login checks the supplied credentials against the configured admin
// identity and returns a signed token on success.
func (m *Manager) Login(email, password string) (string, error) {
	if !strings.EqualFold(email, m.adminEmail) {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.adminPassHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   m.adminEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email: m.adminEmail,
		Role:  roleAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims if it is a valid admin
// token.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != roleAdmin {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
