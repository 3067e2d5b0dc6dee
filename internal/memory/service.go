package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Service applies window rules (append, trim, expiry) on top of a Store.
type Service struct {
	store  Store
	logger *slog.Logger
	window int
	expiry time.Duration
	now    func() time.Time
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	WindowSize int
	Expiry     time.Duration
	Now        func() time.Time
}

func NewService(log *slog.Logger, store Store, opts Options) *Service {
	if log == nil {
		log = slog.Default()
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultExpiry
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "memory")),
		window: opts.WindowSize,
		expiry: opts.Expiry,
		now:    opts.Now,
	}
}

// GetOrCreate returns the window for the pair, creating an empty one atomically.
func (s *Service) GetOrCreate(ctx context.Context, chatbotID, endUserID string) (Memory, error) {
	if err := s.validate(chatbotID, endUserID); err != nil {
		return Memory{}, err
	}
	return s.store.Update(ctx, chatbotID, endUserID, func(*Memory) (bool, error) {
		return false, nil
	})
}

// Get returns an existing window without creating one.
func (s *Service) Get(ctx context.Context, chatbotID, endUserID string) (Memory, error) {
	if err := s.validate(chatbotID, endUserID); err != nil {
		return Memory{}, err
	}
	return s.store.Get(ctx, chatbotID, endUserID)
}

// Append records one entry and trims the window to its bound.
func (s *Service) Append(ctx context.Context, chatbotID, endUserID string, role Role, text string) (Memory, error) {
	if err := s.validate(chatbotID, endUserID); err != nil {
		return Memory{}, err
	}
	if role != RoleUser && role != RoleAssistant {
		return Memory{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.store.Update(ctx, chatbotID, endUserID, func(m *Memory) (bool, error) {
		m.append(Entry{Role: role, Text: text, Time: s.now().UTC()}, s.window)
		return true, nil
	})
}

// MaybeExpire clears an idle window and reports whether it did so.
func (s *Service) MaybeExpire(ctx context.Context, chatbotID, endUserID string) (bool, error) {
	if err := s.validate(chatbotID, endUserID); err != nil {
		return false, err
	}
	cleared := false
	_, err := s.store.Update(ctx, chatbotID, endUserID, func(m *Memory) (bool, error) {
		cleared = s.expireLocked(m)
		return cleared, nil
	})
	return cleared, err
}

// BeginTurn runs the once-per-inbound expiry check and records the user
// message in one locked read-modify-write. It returns the resulting window
// and whether the window had expired.
func (s *Service) BeginTurn(ctx context.Context, chatbotID, endUserID, text string) (Memory, bool, error) {
	if err := s.validate(chatbotID, endUserID); err != nil {
		return Memory{}, false, err
	}
	expired := false
	mem, err := s.store.Update(ctx, chatbotID, endUserID, func(m *Memory) (bool, error) {
		expired = s.expireLocked(m)
		m.append(Entry{Role: RoleUser, Text: text, Time: s.now().UTC()}, s.window)
		return true, nil
	})
	if err != nil {
		return Memory{}, false, err
	}
	if expired {
		s.logger.Debug("conversation window expired",
			slog.String("chatbot_id", chatbotID),
			slog.String("end_user_id", endUserID),
		)
	}
	return mem, expired, nil
}

// Clear empties a window without deleting it.
func (s *Service) Clear(ctx context.Context, chatbotID, endUserID string) (Memory, error) {
	if err := s.validate(chatbotID, endUserID); err != nil {
		return Memory{}, err
	}
	return s.store.Update(ctx, chatbotID, endUserID, func(m *Memory) (bool, error) {
		m.clear(s.now().UTC())
		return true, nil
	})
}

// SweepExpired clears every window idle for longer than the expiry threshold.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.ClearIdleSince(ctx, s.now().UTC().Add(-s.expiry))
}

func (s *Service) expireLocked(m *Memory) bool {
	if !m.Expired(s.now(), s.expiry) {
		return false
	}
	m.clear(s.now().UTC())
	return true
}

func (s *Service) validate(chatbotID, endUserID string) error {
	if s.store == nil {
		return fmt.Errorf("memory store not configured")
	}
	if strings.TrimSpace(chatbotID) == "" {
		return fmt.Errorf("chatbot id is required")
	}
	if strings.TrimSpace(endUserID) == "" {
		return fmt.Errorf("end user id is required")
	}
	return nil
}
