package service

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/servimarket/session-service/internal/core/domain"
)

// CredentialVerifier checks a password against a catalog account.
//
// Accounts that carry a bcrypt hash are verified against it. Seeded demo
// accounts have no hash and accept the shared demo password instead; that is a
// stand-in for a real identity provider, not an authentication scheme. An empty
// demo password disables the fallback.
type CredentialVerifier struct {
	demoPassword string
	cost         int
}

func NewCredentialVerifier(demoPassword string, bcryptCost int) *CredentialVerifier {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &CredentialVerifier{demoPassword: demoPassword, cost: bcryptCost}
}

// Verify reports whether password unlocks account.
func (v *CredentialVerifier) Verify(account *domain.Account, password string) bool {
	if account == nil || password == "" {
		return false
	}
	if account.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
	}
	if v.demoPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(v.demoPassword)) == 1
}

// Hash derives the stored hash for a newly registered account.
func (v *CredentialVerifier) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
