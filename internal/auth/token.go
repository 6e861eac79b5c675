package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sodam-care/service-care-go/internal/config"
	"github.com/sodam-care/service-care-go/pkg/utilities"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by both access and refresh tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the two token classes. Each class has its
// own secret and lifetime; a token of one class never verifies as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type IssuerOption func(*TokenIssuer)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) { t.now = now }
}

func NewTokenIssuer(cfg config.JWT, opts ...IssuerOption) (*TokenIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token issuer: both signing secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token issuer: access and refresh secrets must differ")
	}
	t := &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

func (t *TokenIssuer) SignAccess(userID, email string) (string, error) {
	return t.sign(userID, email, t.accessSecret, t.accessTTL)
}

func (t *TokenIssuer) SignRefresh(userID, email string) (string, error) {
	return t.sign(userID, email, t.refreshSecret, t.refreshTTL)
}

func (t *TokenIssuer) VerifyAccess(raw string) (*Claims, error) {
	return t.verify(raw, t.accessSecret)
}

func (t *TokenIssuer) VerifyRefresh(raw string) (*Claims, error) {
	return t.verify(raw, t.refreshSecret)
}

func (t *TokenIssuer) sign(userID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        utilities.NewKSUID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// verify collapses signature, expiry and format failures into ErrInvalidToken.
func (t *TokenIssuer) verify(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
