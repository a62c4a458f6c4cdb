package ports

import "context"

// SessionSlot is the single durable key-value entry mirroring the current identity.
type SessionSlot interface {
	// Load returns the raw persisted payload, or domain.ErrNoSession when empty.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Clear(ctx context.Context) error
}
