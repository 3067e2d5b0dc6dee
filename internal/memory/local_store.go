package memory

import (
	"context"
	"sync"
	"time"
)

type localKey struct {
	chatbotID string
	endUserID string
}

type localSlot struct {
	mu  sync.Mutex
	mem Memory
}

// LocalStore keeps windows in process memory. It serialises updates per pair
// with a slot mutex, so different pairs never contend. Suitable for a single
// replica or for development.
type LocalStore struct {
	mu    sync.Mutex
	slots map[localKey]*localSlot
	now   func() time.Time
}

func NewLocalStore() *LocalStore {
	return &LocalStore{slots: map[localKey]*localSlot{}, now: time.Now}
}

func (s *LocalStore) slot(chatbotID, endUserID string) *localSlot {
	key := localKey{chatbotID: chatbotID, endUserID: endUserID}
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok {
		sl = &localSlot{mem: Memory{
			ChatbotID: chatbotID,
			EndUserID: endUserID,
			Messages:  []Entry{},
			UpdatedAt: s.now().UTC(),
		}}
		s.slots[key] = sl
	}
	return sl
}

func (s *LocalStore) Update(ctx context.Context, chatbotID, endUserID string, fn Mutation) (Memory, error) {
	if err := ctx.Err(); err != nil {
		return Memory{}, err
	}
	sl := s.slot(chatbotID, endUserID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	working := cloneMemory(sl.mem)
	changed, err := fn(&working)
	if err != nil {
		return Memory{}, err
	}
	if changed {
		sl.mem = working
	}
	return cloneMemory(sl.mem), nil
}

func (s *LocalStore) Get(_ context.Context, chatbotID, endUserID string) (Memory, error) {
	s.mu.Lock()
	sl, ok := s.slots[localKey{chatbotID: chatbotID, endUserID: endUserID}]
	s.mu.Unlock()
	if !ok {
		return Memory{}, ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return cloneMemory(sl.mem), nil
}

func (s *LocalStore) ClearIdleSince(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	slots := make([]*localSlot, 0, len(s.slots))
	for _, sl := range s.slots {
		slots = append(slots, sl)
	}
	s.mu.Unlock()

	var cleared int64
	for _, sl := range slots {
		sl.mu.Lock()
		if len(sl.mem.Messages) > 0 && sl.mem.UpdatedAt.Before(cutoff) {
			sl.mem.clear(s.now().UTC())
			cleared++
		}
		sl.mu.Unlock()
	}
	return cleared, nil
}

// Len reports how many windows exist.
func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func cloneMemory(m Memory) Memory {
	out := m
	out.Messages = make([]Entry, len(m.Messages))
	copy(out.Messages, m.Messages)
	return out
}
