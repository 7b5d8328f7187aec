package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/config"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/middleware"
)

// GenerateActorToken creates a signed JWT access token carrying the user's
// role claim.
func GenerateActorToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.Sub,
		"name":  u.Name,
		"email": u.Email,
		"role":  string(u.Role),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.Auth.JWTSecret))
}

type hs256Token struct {
	claims jwt.MapClaims
}

func (t *hs256Token) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = map[string]interface{}(t.claims)
		return nil
	}
	return errors.New("unsupported claims type")
}

// HS256Verifier verifies tokens produced by GenerateActorToken. Used when no
// external OIDC issuer is configured.
type HS256Verifier struct {
	secret []byte
}

func NewHS256Verifier(secret string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret)}
}

func (v *HS256Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return &hs256Token{claims: claims}, nil
}
