package ports

import (
	"context"

	"github.com/servimarket/session-service/internal/core/domain"
)

// JobQueue runs submitted jobs one at a time in submission order.
type JobQueue interface {
	Submit(ctx context.Context, job func(ctx context.Context)) error
}

// SessionService is the public contract of the session store.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Register(ctx context.Context, email, password, displayName string, role domain.Role) (*domain.Identity, error)
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, partial domain.Profile) (*domain.Identity, error)
	RestoreSession(ctx context.Context) *domain.Identity

	Current() *domain.Identity
	IsAuthenticated() bool
	IsClient() bool
	IsProfessional() bool
	IsAdmin() bool
}

// TokenIssuer signs bearer tokens for an identity.
type TokenIssuer interface {
	Issue(identity *domain.Identity) (string, error)
}
