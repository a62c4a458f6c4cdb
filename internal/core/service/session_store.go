package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/servimarket/session-service/internal/core/domain"
	"github.com/servimarket/session-service/internal/core/ports"
	"github.com/servimarket/session-service/internal/pkg/metrics"
)

const (
	opLogin         = "login"
	opRegister      = "register"
	opLogout        = "logout"
	opUpdateProfile = "update_profile"
	opRestore       = "restore"
)

// SessionOptions tunes a SessionStore.
type SessionOptions struct {
	// Delay is an artificial pause before login and register, used by demos
	// to simulate network latency. Zero disables it.
	Delay time.Duration
}

// SessionStore owns the current identity and mirrors it to a durable slot.
// Every operation runs on the injected single-owner queue, so mutations never
// interleave; reads take a snapshot under mu.
type SessionStore struct {
	catalog  ports.IdentityCatalog
	slot     ports.SessionSlot
	queue    ports.JobQueue
	verifier *CredentialVerifier
	opts     SessionOptions
	log      zerolog.Logger

	mu      sync.RWMutex
	current *domain.Identity
}

func NewSessionStore(
	catalog ports.IdentityCatalog,
	slot ports.SessionSlot,
	queue ports.JobQueue,
	verifier *CredentialVerifier,
	opts SessionOptions,
	log zerolog.Logger,
) *SessionStore {
	return &SessionStore{
		catalog:  catalog,
		slot:     slot,
		queue:    queue,
		verifier: verifier,
		opts:     opts,
		log:      log,
	}
}

// Login authenticates email/password against the catalog and makes the
// matching identity current.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	var (
		out   *domain.Identity
		opErr error
	)
	if err := s.queue.Submit(ctx, func(ctx context.Context) {
		out, opErr = s.login(ctx, email, password)
	}); err != nil {
		return nil, err
	}
	return out, opErr
}

func (s *SessionStore) login(ctx context.Context, email, password string) (*domain.Identity, error) {
	defer observe(opLogin, time.Now())
	s.pause(ctx)

	if email == "" || password == "" {
		countResult(opLogin, domain.ErrInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.catalog.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			countResult(opLogin, domain.ErrInvalidCredentials)
			return nil, domain.ErrInvalidCredentials
		}
		countResult(opLogin, err)
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.verifier.Verify(account, password) {
		s.log.Debug().Str("email", email).Msg("login rejected")
		countResult(opLogin, domain.ErrInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}

	identity := account.Identity.Clone()
	s.setCurrent(identity)
	s.persist(ctx, identity)

	s.log.Info().Str("identity_id", identity.ID).Str("role", identity.Role.String()).Msg("login succeeded")
	countResult(opLogin, nil)
	return identity.Clone(), nil
}

// Register creates a catalog account and makes it current.
func (s *SessionStore) Register(ctx context.Context, email, password, displayName string, role domain.Role) (*domain.Identity, error) {
	var (
		out   *domain.Identity
		opErr error
	)
	if err := s.queue.Submit(ctx, func(ctx context.Context) {
		out, opErr = s.register(ctx, email, password, displayName, role)
	}); err != nil {
		return nil, err
	}
	return out, opErr
}

func (s *SessionStore) register(ctx context.Context, email, password, displayName string, role domain.Role) (*domain.Identity, error) {
	defer observe(opRegister, time.Now())
	s.pause(ctx)

	if email == "" || password == "" {
		countResult(opRegister, domain.ErrInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}
	if !role.Valid() {
		countResult(opRegister, domain.ErrInvalidRole)
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}

	if _, err := s.catalog.FindByEmail(ctx, email); err == nil {
		countResult(opRegister, domain.ErrEmailAlreadyRegistered)
		return nil, domain.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		countResult(opRegister, err)
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.verifier.Hash(password)
	if err != nil {
		countResult(opRegister, err)
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Identity: domain.Identity{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: displayName,
			Role:        role,
			Profile:     domain.NewProfile(role),
		},
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.catalog.Append(ctx, account); err != nil {
		countResult(opRegister, err)
		if errors.Is(err, domain.ErrEmailAlreadyRegistered) {
			return nil, domain.ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	identity := account.Identity.Clone()
	s.setCurrent(identity)
	s.persist(ctx, identity)

	s.log.Info().Str("identity_id", identity.ID).Str("role", identity.Role.String()).Msg("identity registered")
	countResult(opRegister, nil)
	return identity.Clone(), nil
}

// Logout clears the current identity and its persisted mirror. It never fails;
// problems reaching the slot are logged.
func (s *SessionStore) Logout(ctx context.Context) {
	err := s.queue.Submit(ctx, func(ctx context.Context) {
		defer observe(opLogout, time.Now())
		s.setCurrent(nil)
		if err := s.slot.Clear(ctx); err != nil {
			metrics.PersistErrorsTotal.WithLabelValues("slot").Inc()
			s.log.Warn().Err(err).Msg("failed to clear session slot")
		}
		countResult(opLogout, nil)
		s.log.Info().Msg("logged out")
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("logout not confirmed")
	}
}

// UpdateProfile merges partial into the current identity's profile.
func (s *SessionStore) UpdateProfile(ctx context.Context, partial domain.Profile) (*domain.Identity, error) {
	var (
		out   *domain.Identity
		opErr error
	)
	if err := s.queue.Submit(ctx, func(ctx context.Context) {
		out, opErr = s.updateProfile(ctx, partial)
	}); err != nil {
		return nil, err
	}
	return out, opErr
}

func (s *SessionStore) updateProfile(ctx context.Context, partial domain.Profile) (*domain.Identity, error) {
	defer observe(opUpdateProfile, time.Now())

	s.mu.RLock()
	cur := s.current.Clone()
	s.mu.RUnlock()

	if cur == nil {
		countResult(opUpdateProfile, domain.ErrNotAuthenticated)
		return nil, domain.ErrNotAuthenticated
	}

	cur.Profile = cur.Profile.Merge(partial)
	s.setCurrent(cur)
	s.persist(ctx, cur)

	if err := s.catalog.UpdateProfile(ctx, cur.Email, cur.Profile); err != nil {
		metrics.PersistErrorsTotal.WithLabelValues("catalog").Inc()
		s.log.Warn().Err(err).Str("identity_id", cur.ID).Msg("failed to sync profile to catalog")
	}

	s.log.Info().Str("identity_id", cur.ID).Int("keys", len(partial)).Msg("profile updated")
	countResult(opUpdateProfile, nil)
	return cur.Clone(), nil
}

// RestoreSession loads the persisted identity, if any, and makes it current.
// Any read or decode failure clears the slot and yields nil.
func (s *SessionStore) RestoreSession(ctx context.Context) *domain.Identity {
	var out *domain.Identity
	if err := s.queue.Submit(ctx, func(ctx context.Context) {
		out = s.restore(ctx)
	}); err != nil {
		s.log.Warn().Err(err).Msg("restore not confirmed")
		return nil
	}
	return out
}

func (s *SessionStore) restore(ctx context.Context) *domain.Identity {
	defer observe(opRestore, time.Now())

	payload, err := s.slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			s.log.Warn().Err(err).Msg("failed to read session slot")
		}
		s.discard(ctx)
		countResult(opRestore, domain.ErrNoSession)
		return nil
	}

	var identity domain.Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable session")
		s.discard(ctx)
		countResult(opRestore, err)
		return nil
	}
	if err := identity.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("discarding invalid session")
		s.discard(ctx)
		countResult(opRestore, err)
		return nil
	}
	if identity.Profile == nil {
		identity.Profile = domain.Profile{}
	}

	s.setCurrent(&identity)
	s.log.Info().Str("identity_id", identity.ID).Msg("session restored")
	countResult(opRestore, nil)
	return identity.Clone()
}

// Current returns a copy of the current identity, or nil when unauthenticated.
func (s *SessionStore) Current() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (s *SessionStore) IsClient() bool       { return s.hasRole(domain.RoleClient) }
func (s *SessionStore) IsProfessional() bool { return s.hasRole(domain.RoleProfessional) }
func (s *SessionStore) IsAdmin() bool        { return s.hasRole(domain.RoleAdmin) }

func (s *SessionStore) hasRole(role domain.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.Role == role
}

func (s *SessionStore) setCurrent(identity *domain.Identity) {
	s.mu.Lock()
	s.current = identity
	s.mu.Unlock()

	if identity != nil {
		metrics.Authenticated.Set(1)
	} else {
		metrics.Authenticated.Set(0)
	}
}

// persist mirrors identity to the slot. Failures are non-fatal: the in-memory
// state stays authoritative until the next successful write.
func (s *SessionStore) persist(ctx context.Context, identity *domain.Identity) {
	payload, err := json.Marshal(identity)
	if err == nil {
		err = s.slot.Save(ctx, payload)
	}
	if err != nil {
		metrics.PersistErrorsTotal.WithLabelValues("slot").Inc()
		s.log.Warn().Err(err).Str("identity_id", identity.ID).Msg("failed to persist session")
	}
}

func (s *SessionStore) discard(ctx context.Context) {
	s.setCurrent(nil)
	if err := s.slot.Clear(ctx); err != nil {
		metrics.PersistErrorsTotal.WithLabelValues("slot").Inc()
		s.log.Warn().Err(err).Msg("failed to clear session slot")
	}
}

func (s *SessionStore) pause(ctx context.Context) {
	if s.opts.Delay <= 0 {
		return
	}
	t := time.NewTimer(s.opts.Delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func observe(op string, start time.Time) {
	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func countResult(op string, err error) {
	metrics.OperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrEmailAlreadyRegistered):
		return "email_already_registered"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, domain.ErrNoSession):
		return "no_session"
	default:
		return "error"
	}
}
