package ledger

import (
	"log/slog"
	"sync"
	"time"
)

// Manager keys ledgers by team ID and evicts idle ones in the background.
// A ledger is created lazily on first access for a team.
type Manager struct {
	mu      sync.RWMutex
	ledgers map[string]*Ledger
	idleTTL time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewManager creates a ledger manager and starts the idle-eviction
// goroutine.
func NewManager(idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = 12 * time.Hour
	}
	m := &Manager{
		ledgers: make(map[string]*Ledger),
		idleTTL: idleTTL,
		done:    make(chan struct{}),
	}
	go m.evictionLoop()
	return m
}

// ForTeam returns the team's ledger, creating it if needed.
func (m *Manager) ForTeam(teamID string) *Ledger {
	m.mu.RLock()
	l, ok := m.ledgers[teamID]
	m.mu.RUnlock()
	if ok {
		l.Touch()
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.ledgers[teamID]; ok {
		return l
	}
	l = New()
	m.ledgers[teamID] = l
	return l
}

// Close stops the eviction goroutine.
func (m *Manager) Close() {
	m.once.Do(func() { close(m.done) })
}

// evictionLoop periodically removes ledgers idle past the TTL so a
// long-running server does not accumulate state for finished teams.
func (m *Manager) evictionLoop() {
	ticker := time.NewTicker(m.idleTTL / 4)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-m.idleTTL)
			m.mu.Lock()
			for teamID, l := range m.ledgers {
				if l.LastTouched().Before(cutoff) {
					delete(m.ledgers, teamID)
					slog.Debug("evicted idle ledger", "team_id", teamID)
				}
			}
			m.mu.Unlock()
		}
	}
}
