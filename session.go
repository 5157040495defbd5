package main

import (
	"net"
	"sync"
)

type SessionState int

const (
	// StateConnected is the initial state: a session exists but no
	// account is bound yet
	StateConnected SessionState = iota

	// StateAuthenticated means a login or account creation succeeded
	// and the account name is bound for the session's lifetime
	StateAuthenticated

	// StateCharacterActive means a character owned by the bound
	// account has been selected
	StateCharacterActive
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateCharacterActive:
		return "active"
	}

	return "unknown"
}

// A Session binds a client endpoint to its authentication and
// gameplay state across packets
// Disconnected sessions are evicted from the table, so holding a
// Session value means the id was live at lookup time
type Session struct {
	ID        uint32
	Addr      net.Addr
	State     SessionState
	Account   string
	PlayerID  int64
	Character string
}

// SessionTable is the registry of live sessions
// It is shared between the dispatch goroutine and the console, so
// every access goes through the mutex
type SessionTable struct {
	mu       sync.RWMutex
	nextID   uint32
	sessions map[uint32]*Session
}

func NewSessionTable() *SessionTable {
	return &SessionTable{
		nextID:   1,
		sessions: make(map[uint32]*Session),
	}
}

// Connect mints a fresh session for addr and returns its id
// Ids are monotonic and never reused for the lifetime of the
// process, so a stale id can't be revived by a later client
func (t *SessionTable) Connect(addr net.Addr) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++

	t.sessions[id] = &Session{
		ID:    id,
		Addr:  addr,
		State: StateConnected,
	}

	return id
}

// Valid reports whether id refers to a live session
func (t *SessionTable) Valid(id uint32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.sessions[id]
	return ok
}

// Lookup returns a copy of the session with the given id
func (t *SessionTable) Lookup(id uint32) (Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[id]
	if !ok {
		return Session{}, false
	}

	return *s, true
}

// Authenticate binds an account to a connected session
// The account name is immutable once set: a session that is already
// authenticated can't be rebound
func (t *SessionTable) Authenticate(id uint32, account string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[id]
	if !ok || s.State != StateConnected {
		return false
	}

	s.State = StateAuthenticated
	s.Account = account

	return true
}

// Activate marks a character as selected for an authenticated session
// Reselecting from an already active session is allowed
func (t *SessionTable) Activate(id uint32, character string, playerID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[id]
	if !ok || s.State == StateConnected {
		return false
	}

	s.State = StateCharacterActive
	s.Character = character
	s.PlayerID = playerID

	return true
}

// Active reports whether id refers to a session with a selected
// character, the precondition for gameplay-mutating packets
func (t *SessionTable) Active(id uint32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[id]
	return ok && s.State == StateCharacterActive
}

// Disconnect evicts a session
// Evicting an id that is already gone is a no-op, so a duplicated
// DISCONNECT datagram is harmless
func (t *SessionTable) Disconnect(id uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[id]; !ok {
		return false
	}
	delete(t.sessions, id)

	return true
}

// Clear evicts every session on shutdown
func (t *SessionTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id := range t.sessions {
		delete(t.sessions, id)
	}
}

// Count reports how many sessions are live
func (t *SessionTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.sessions)
}

// Snapshot returns a copy of all live sessions for the console, so
// it can print them without holding the lock over I/O
func (t *SessionTable) Snapshot() []Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		r = append(r, *s)
	}

	return r
}
