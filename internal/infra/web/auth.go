package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Scheduler-token primitives =====

// AuthManager mints and verifies the HS256 tokens that external schedulers
// present when invoking the internal sweep endpoint.
type AuthManager struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthManager(secret string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthManager{secret: []byte(secret), ttl: ttl}
}

type SchedulerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint issues a token for an external scheduler.
func (a *AuthManager) Mint() (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("sweep secret not configured")
	}
	now := time.Now()
	claims := SchedulerClaims{
		Role: "scheduler",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   "scheduler",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseFromRequest accepts Authorization: Bearer <jwt>.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*SchedulerClaims, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return nil, errors.New("missing token")
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*SchedulerClaims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("sweep secret not configured")
	}
	claims := &SchedulerClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
