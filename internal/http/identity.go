package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/availability-coordinator/internal/application"
)

var errInvalidIdentity = errors.New("identity token is invalid")

// IdentityVerifier turns a bearer token into a principal.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (application.Principal, error)
}

type identityClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256 tokens whose subject is the identity and whose
// "name" claim is the display name.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewJWTVerifier constructs a verifier for the shared secret.
func NewJWTVerifier(secret string, now func() time.Time) *JWTVerifier {
	if now == nil {
		now = time.Now
	}
	return &JWTVerifier{secret: []byte(secret), now: now}
}

// Verify validates signature, algorithm and expiry.
func (v *JWTVerifier) Verify(_ context.Context, token string) (application.Principal, error) {
	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return application.Principal{}, fmt.Errorf("%w: %v", errInvalidIdentity, err)
	}
	if !parsed.Valid {
		return application.Principal{}, errInvalidIdentity
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return application.Principal{}, fmt.Errorf("%w: missing subject", errInvalidIdentity)
	}
	return application.Principal{Identity: subject, DisplayName: strings.TrimSpace(claims.Name)}, nil
}

// Issue signs a token for principal. A non-positive ttl issues a token without expiry.
func (v *JWTVerifier) Issue(principal application.Principal, ttl time.Duration) (string, error) {
	now := v.now()
	claims := identityClaims{
		Name: principal.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  principal.Identity,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func extractBearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	// A header without the Bearer scheme is passed through so it fails verification.
	return header
}
