package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/crm-core/internal/config"
)

func authConfig(t *testing.T, password string) config.AuthConfig {
	t.Helper()
	hash, err := HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return config.AuthConfig{
		AdminID:           "admin",
		AdminName:         "Administrator",
		AdminPasswordHash: hash,
	}
}

func TestVerifyAdmin(t *testing.T) {
	cfg := authConfig(t, "hunter2")

	actor, err := VerifyAdmin(cfg, "admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "admin", actor.ID)
	assert.Equal(t, "Administrator", actor.Name)
}

func TestVerifyAdminRejectsBadCredentials(t *testing.T) {
	cfg := authConfig(t, "hunter2")

	_, err := VerifyAdmin(cfg, "admin", "wrong")
	assert.Error(t, err)
	_, err = VerifyAdmin(cfg, "intruder", "hunter2")
	assert.Error(t, err)
}

func TestVerifyAdminRequiresConfiguredHash(t *testing.T) {
	_, err := VerifyAdmin(config.AuthConfig{AdminID: "admin"}, "admin", "anything")
	assert.Error(t, err)
}
