package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viralforge/birthday-reminder/internal/domain"
	"github.com/viralforge/birthday-reminder/internal/ports"
)

const AdminRole = "admin"

// HMACVerifier checks HS256 admin tokens against a shared secret.
type HMACVerifier struct {
	secret []byte
	leeway time.Duration
	nowFn  func() time.Time
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < 16 {
		return nil, errors.New("admin jwt secret must be at least 16 characters")
	}
	return &HMACVerifier{secret: []byte(secret), leeway: 30 * time.Second, nowFn: time.Now}, nil
}

type adminJWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Sign issues a token for subject with the given role. Operators use it to
// mint short-lived admin tokens.
func (v *HMACVerifier) Sign(subject, role string, ttl time.Duration) (string, error) {
	now := v.nowFn()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, adminJWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}

func (v *HMACVerifier) Verify(raw string) (ports.AdminClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &adminJWTClaims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.nowFn),
	)
	if err != nil {
		return ports.AdminClaims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*adminJWTClaims)
	if !ok || !parsed.Valid {
		return ports.AdminClaims{}, domain.ErrUnauthorized
	}
	if claims.Role != AdminRole {
		return ports.AdminClaims{}, domain.ErrForbidden
	}
	out := ports.AdminClaims{Subject: claims.Subject, Role: claims.Role}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
