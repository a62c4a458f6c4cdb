package memory

import (
	"context"
	"sync"
	"time"

	"github.com/servimarket/session-service/internal/core/domain"
)

// Catalog is a process-local identity catalog. Stored and returned accounts
// are cloned so callers never share internal state.
type Catalog struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

func NewCatalog() *Catalog {
	return &Catalog{accounts: make(map[string]*domain.Account)}
}

// NewSeededCatalog returns a catalog holding one demo account per role.
// Demo accounts have no password hash and accept the configured demo password.
func NewSeededCatalog() *Catalog {
	c := NewCatalog()
	now := time.Now().UTC()
	for _, a := range DemoAccounts() {
		a.CreatedAt, a.UpdatedAt = now, now
		c.accounts[a.Email] = a
	}
	return c
}

// DemoAccounts lists the accounts loaded by NewSeededCatalog.
func DemoAccounts() []*domain.Account {
	return []*domain.Account{
		{Identity: domain.Identity{
			ID:          "3f0b8a52-6c1e-4d7a-9f54-0c1a2b3c4d01",
			Email:       "cliente@servimarket.dev",
			DisplayName: "Carla Cliente",
			Role:        domain.RoleClient,
			Profile: domain.Profile{
				domain.ProfilePhone:   "+52 55 1000 0001",
				domain.ProfileAddress: "Av. Insurgentes Sur 100, CDMX",
			},
		}},
		{Identity: domain.Identity{
			ID:          "3f0b8a52-6c1e-4d7a-9f54-0c1a2b3c4d02",
			Email:       "profesional@servimarket.dev",
			DisplayName: "Pablo Plomero",
			Role:        domain.RoleProfessional,
			Profile: domain.Profile{
				domain.ProfilePhone:      "+52 55 1000 0002",
				domain.ProfileProfession: "Plomería",
				domain.ProfileBio:        "Instalaciones y reparaciones residenciales.",
			},
		}},
		{Identity: domain.Identity{
			ID:          "3f0b8a52-6c1e-4d7a-9f54-0c1a2b3c4d03",
			Email:       "admin@servimarket.dev",
			DisplayName: "Ana Admin",
			Role:        domain.RoleAdmin,
			Profile:     domain.Profile{},
		}},
	}
}

func (c *Catalog) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.accounts[email]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return a.Clone(), nil
}

func (c *Catalog) Append(_ context.Context, account *domain.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.accounts[account.Email]; exists {
		return domain.ErrEmailAlreadyRegistered
	}
	c.accounts[account.Email] = account.Clone()
	return nil
}

func (c *Catalog) UpdateProfile(_ context.Context, email string, profile domain.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.accounts[email]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	a.Profile = profile.Clone()
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Len reports the number of stored accounts.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.accounts)
}
