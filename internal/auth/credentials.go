package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/crm-core/internal/config"
	"github.com/spec-kit/crm-core/internal/domain"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// HashPassword hashes a plaintext password with the given cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyAdmin checks the login against the configured admin credential
// and returns the acting admin on success.
func VerifyAdmin(cfg config.AuthConfig, id, password string) (*domain.Actor, error) {
	if cfg.AdminPasswordHash == "" {
		return nil, apperrors.NewUnauthorized("admin login not configured")
	}
	if id != cfg.AdminID {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(password)); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return &domain.Actor{ID: cfg.AdminID, Name: cfg.AdminName}, nil
}
