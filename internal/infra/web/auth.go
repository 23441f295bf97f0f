package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eduai-backend/internal/domain/model"
)

// Session is the verified caller identity. Tokens are issued by the auth
// provider; this service only verifies them.
type Session struct {
	UserID string
	Tier   model.Tier
}

type SessionClaims struct {
	Tier string `json:"tier,omitempty"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	HMACSecret []byte
	CookieName string
	TTL        time.Duration
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(secret, cookieName string, ttl time.Duration) *AuthManager {
	return &AuthManager{cfg: AuthConfig{
		HMACSecret: []byte(secret),
		CookieName: cookieName,
		TTL:        ttl,
	}}
}

var errNoSession = errors.New("missing session token")

// SessionFromRequest accepts the token as Authorization bearer or cookie.
func (a *AuthManager) SessionFromRequest(r *http.Request) (*Session, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errNoSession
}

func (a *AuthManager) parse(tok string) (*Session, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.cfg.HMACSecret, nil
	})
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, errors.New("invalid session token")
	}
	return &Session{UserID: claims.Subject, Tier: model.ParseTier(claims.Tier)}, nil
}

// Mint signs a session token locally. Dev-mode convenience; production
// tokens come from the auth provider.
func (a *AuthManager) Mint(userID string, tier model.Tier) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Tier: string(tier),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.cfg.HMACSecret)
}
