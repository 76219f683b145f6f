//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"alumni-reserve/internal/pkg/config"
	"alumni-reserve/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TokenFor signs a token the way the association's identity service would.
// The backend only validates tokens, so tests mint their own.
func TokenFor(t *testing.T, cfg config.Config, actorID uuid.UUID, role string) string {
	t.Helper()

	duration, err := time.ParseDuration(cfg.JWT.Duration)
	require.NoError(t, err)

	token, err := jwt.NewService(cfg.JWT.Secret, duration).GenerateToken(actorID, role)
	require.NoError(t, err)
	return token
}
