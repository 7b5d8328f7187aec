package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/config"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret"}}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()
	u := &models.User{Sub: "sub-1", Name: "Test User", Email: "t@example.com", Role: models.RoleEditor}

	raw, err := GenerateActorToken(cfg, u, time.Minute)
	require.NoError(t, err)

	tok, err := NewHS256Verifier(cfg.Auth.JWTSecret).Verify(context.Background(), raw)
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "sub-1", claims["sub"])
	require.Equal(t, "editor", claims["role"])
	require.Equal(t, "t@example.com", claims["email"])
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	cfg := testConfig()
	u := &models.User{Sub: "sub-1", Role: models.RoleViewer}

	raw, err := GenerateActorToken(cfg, u, time.Minute)
	require.NoError(t, err)

	_, err = NewHS256Verifier("other-secret").Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	cfg := testConfig()
	u := &models.User{Sub: "sub-1", Role: models.RoleViewer}

	raw, err := GenerateActorToken(cfg, u, -time.Minute)
	require.NoError(t, err)

	_, err = NewHS256Verifier(cfg.Auth.JWTSecret).Verify(context.Background(), raw)
	require.Error(t, err)
}
