package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"configurator-backend/internal/configurator"
	"configurator-backend/internal/domain"
)

// sessionEntry сессия конфигуратора и её сериализующий мьютекс.
type sessionEntry struct {
	id string

	mu       sync.Mutex
	session  *configurator.Session
	postcode *configurator.Debouncer
	lastSeen time.Time
}

// SessionRegistry хранит сессии в памяти (между перезапусками не живут).
type SessionRegistry struct {
	ttl      time.Duration
	debounce time.Duration

	mu    sync.Mutex
	items map[string]*sessionEntry
	now   func() time.Time
}

func NewSessionRegistry(ttl, debounce time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionRegistry{
		ttl:      ttl,
		debounce: debounce,
		items:    map[string]*sessionEntry{},
		now:      time.Now,
	}
}

// Create открывает новую сессию для каталога.
func (r *SessionRegistry) Create(c *domain.Catalog) *sessionEntry {
	entry := &sessionEntry{
		id:       uuid.NewString(),
		session:  configurator.NewSession(c),
		postcode: configurator.NewDebouncer(r.debounce),
	}

	r.mu.Lock()
	entry.lastSeen = r.now()
	r.items[entry.id] = entry
	n := len(r.items)
	r.mu.Unlock()

	sessionsActive.Set(float64(n))
	return entry
}

// Get возвращает сессию и продлевает её жизнь.
func (r *SessionRegistry) Get(id string) (*sessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.items[id]
	if ok {
		entry.lastSeen = r.now()
	}
	return entry, ok
}

// Sweep удаляет сессии, простаивающие дольше ttl.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.ttl)
	var expired []*sessionEntry
	for id, entry := range r.items {
		if entry.lastSeen.Before(cutoff) {
			expired = append(expired, entry)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	for _, entry := range expired {
		entry.postcode.Cancel()
	}
	sessionsActive.Set(float64(n))
	return len(expired)
}

// Len количество живых сессий
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
