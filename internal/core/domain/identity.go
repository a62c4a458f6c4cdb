package domain

import (
	"errors"
	"maps"
	"time"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrIdentityNotFound       = errors.New("identity not found")
	ErrNoSession              = errors.New("no persisted session")
	ErrInvalidRole            = errors.New("invalid role")
)

// Well-known profile attribute keys. The profile stays an open mapping.
const (
	ProfilePhone      = "phone"
	ProfileAddress    = "address"
	ProfileProfession = "profession"
	ProfileBio        = "bio"
	ProfileAvatar     = "avatar"
)

// Profile holds optional identity attributes keyed by name.
type Profile map[string]string

// Merge returns a copy of p with every key in partial overwritten.
// Keys missing from partial are kept.
func (p Profile) Merge(partial Profile) Profile {
	out := make(Profile, len(p)+len(partial))
	maps.Copy(out, p)
	maps.Copy(out, partial)
	return out
}

// Clone returns an independent copy; a nil profile clones to an empty one.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	maps.Copy(out, p)
	return out
}

// NewProfile returns the initial profile for a freshly registered identity.
func NewProfile(role Role) Profile {
	p := Profile{}
	if role == RoleProfessional {
		p[ProfileProfession] = ""
		p[ProfileBio] = ""
	}
	return p
}

// Identity is the authenticated user held by the session store.
type Identity struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	Role        Role    `json:"role"`
	Profile     Profile `json:"profile"`
}

// Clone returns a deep copy so callers never share the store's profile map.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.Profile = i.Profile.Clone()
	return &c
}

// Validate checks the fields a persisted identity must carry to be restored.
func (i *Identity) Validate() error {
	switch {
	case i.ID == "":
		return errors.New("identity: missing id")
	case i.Email == "":
		return errors.New("identity: missing email")
	case !i.Role.Valid():
		return ErrInvalidRole
	}
	return nil
}

// Account is the catalog record behind an Identity.
// Seeded demo accounts have an empty PasswordHash.
type Account struct {
	Identity
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Profile = a.Profile.Clone()
	return &c
}
