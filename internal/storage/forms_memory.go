package storage

import (
	"context"
	"sync"
	"time"

	"github.com/InQaaaaGit/supportgen/internal/form"
	"go.uber.org/zap"
)

// formEntry запись формы в памяти
type formEntry struct {
	form      *form.Form
	expiresAt time.Time
}

// MemoryFormStorage реализует FormStorage в памяти процесса.
// Формы, к которым не обращались дольше ttl, удаляются.
type MemoryFormStorage struct {
	mu     sync.Mutex
	forms  map[string]formEntry
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewMemoryFormStorage создает хранилище форм. ttl <= 0 отключает истечение.
func NewMemoryFormStorage(ttl time.Duration, logger *zap.Logger) *MemoryFormStorage {
	return &MemoryFormStorage{
		forms:  make(map[string]formEntry),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Load возвращает копию формы сессии
func (s *MemoryFormStorage) Load(ctx context.Context, sessionID string) (*form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.forms[sessionID]
	if !ok {
		return nil, ErrFormNotFound
	}
	if s.expired(entry) {
		delete(s.forms, sessionID)
		return nil, ErrFormNotFound
	}

	entry.expiresAt = s.deadline()
	s.forms[sessionID] = entry
	return entry.form.Clone(), nil
}

// Save сохраняет копию формы сессии
func (s *MemoryFormStorage) Save(ctx context.Context, sessionID string, f *form.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forms[sessionID] = formEntry{
		form:      f.Clone(),
		expiresAt: s.deadline(),
	}
	return nil
}

// Delete удаляет форму сессии
func (s *MemoryFormStorage) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.forms, sessionID)
	return nil
}

// Sweep удаляет истекшие формы и возвращает их количество
func (s *MemoryFormStorage) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.forms {
		if s.expired(entry) {
			delete(s.forms, id)
			removed++
		}
	}
	return removed
}

// RunSweeper периодически вызывает Sweep до отмены контекста
func (s *MemoryFormStorage) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Expired forms removed", zap.Int("count", n))
			}
		}
	}
}

func (s *MemoryFormStorage) deadline() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *MemoryFormStorage) expired(entry formEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}
