package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	dbpkg "github.com/onnwee/livechat-bot/db"
	"github.com/onnwee/livechat-bot/monitor"
)

// HandleStatus reports the monitor snapshot: whether it runs, the current
// livestream, the chat session state, and the failure streak.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := monitor.Snapshot{}
	if h.Mon != nil {
		snap = h.Mon.State()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

// HandleChatRecent serves the newest archived chat messages. ?limit= caps the
// page size, default 50.
func (h *Handlers) HandleChatRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	msgs, err := h.Archive.RecentMessages(r.Context(), limit)
	if err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []dbpkg.StoredMessage{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(msgs)
}
