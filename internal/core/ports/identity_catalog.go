package ports

import (
	"context"

	"github.com/servimarket/session-service/internal/core/domain"
)

// IdentityCatalog resolves emails to catalog accounts.
type IdentityCatalog interface {
	// FindByEmail returns domain.ErrIdentityNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Append stores a new account; domain.ErrEmailAlreadyRegistered on conflict.
	Append(ctx context.Context, account *domain.Account) error
	// UpdateProfile replaces the stored profile of the account owning email.
	UpdateProfile(ctx context.Context, email string, profile domain.Profile) error
}
