package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/servimarket/session-service/internal/core/domain"
)

// Slot is an in-process session slot. It does not survive a restart and is
// meant for development and tests.
type Slot struct {
	mu      sync.Mutex
	payload []byte
}

func NewSlot() *Slot {
	return &Slot{}
}

func (s *Slot) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return nil, domain.ErrNoSession
	}
	return bytes.Clone(s.payload), nil
}

func (s *Slot) Save(_ context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payload == nil {
		payload = []byte{}
	}
	s.payload = bytes.Clone(payload)
	return nil
}

func (s *Slot) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = nil
	return nil
}

// Len reports the size of the stored payload.
func (s *Slot) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payload)
}
