package server

import (
	"database/sql"
	"sync"
	"time"

	dbpkg "github.com/onnwee/livechat-bot/db"
	"github.com/onnwee/livechat-bot/monitor"
	"github.com/onnwee/livechat-bot/youtubeapi"
)

// maxOAuthStates bounds the in-memory state store.
const maxOAuthStates = 10000

// StatusReporter exposes the monitor's current snapshot; implemented by
// *monitor.Monitor, faked in tests.
type StatusReporter interface {
	State() monitor.Snapshot
}

// Handlers holds dependencies for all HTTP handlers. Mon and Auth may be nil
// when the monitor is not configured; the affected routes degrade gracefully.
type Handlers struct {
	DB      *sql.DB
	Archive *dbpkg.Archive
	Mon     StatusReporter
	Auth    *youtubeapi.Auth

	stateMu    sync.RWMutex
	stateStore map[string]time.Time
}

// NewHandlers creates a Handlers instance with the given dependencies.
func NewHandlers(db *sql.DB, mon StatusReporter, auth *youtubeapi.Auth) *Handlers {
	return &Handlers{
		DB:         db,
		Archive:    &dbpkg.Archive{DB: db},
		Mon:        mon,
		Auth:       auth,
		stateStore: make(map[string]time.Time),
	}
}

// addOAuthState registers a pending OAuth state. Expired entries are swept
// opportunistically so the map cannot grow without bound.
func (h *Handlers) addOAuthState(state string, expiry time.Time) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	if len(h.stateStore)%100 == 0 {
		now := time.Now()
		for s, exp := range h.stateStore {
			if now.After(exp) {
				delete(h.stateStore, s)
			}
		}
	}
	if len(h.stateStore) >= maxOAuthStates {
		// refusing to add fails the flow, which beats memory exhaustion
		return
	}
	h.stateStore[state] = expiry
}

// consumeOAuthState validates and removes a state; returns false when the
// state is unknown or expired.
func (h *Handlers) consumeOAuthState(state string) bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	exp, ok := h.stateStore[state]
	if !ok {
		return false
	}
	delete(h.stateStore, state)
	return !time.Now().After(exp)
}
