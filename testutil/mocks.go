// Package testutil holds shared test fixtures: a mock YouTube Data API server
// and a Postgres test database helper.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockYouTubeServer serves canned YouTube Data API responses. Point a client
// at Server.URL with option.WithEndpoint and option.WithoutAuthentication.
type MockYouTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockYouTubeServer creates a mock API server; unmapped paths return 404.
func NewMockYouTubeServer(t *testing.T) *MockYouTubeServer {
	t.Helper()
	m := &MockYouTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockBroadcastsResponse serves a liveBroadcasts.list page.
func (m *MockYouTubeServer) MockBroadcastsResponse(items []map[string]any) {
	m.Handlers["/youtube/v3/liveBroadcasts"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"kind":  "youtube#liveBroadcastListResponse",
			"items": items,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockChatResponse serves a liveChatMessages.list page with the given
// continuation token.
func (m *MockYouTubeServer) MockChatResponse(items []map[string]any, nextToken string) {
	m.Handlers["/youtube/v3/liveChat/messages"] = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			// liveChatMessages.insert shares the path with list
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"kind": "youtube#liveChatMessage"})
			return
		}
		response := map[string]any{
			"kind":          "youtube#liveChatMessageListResponse",
			"nextPageToken": nextToken,
			"items":         items,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockChannelsResponse serves a channels.list page.
func (m *MockYouTubeServer) MockChannelsResponse(items []map[string]any) {
	m.Handlers["/youtube/v3/channels"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"kind":  "youtube#channelListResponse",
			"items": items,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockError serves a googleapi-shaped error for path.
func (m *MockYouTubeServer) MockError(path string, status int, reason, message string) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    status,
				"message": message,
				"errors":  []map[string]string{{"reason": reason, "message": message}},
			},
		})
	}
}

// BroadcastItem builds one liveBroadcasts.list item.
func BroadcastItem(id, title, lifeCycleStatus, chatID string) map[string]any {
	return map[string]any{
		"id": id,
		"snippet": map[string]any{
			"title":      title,
			"liveChatId": chatID,
		},
		"status": map[string]any{
			"lifeCycleStatus": lifeCycleStatus,
		},
	}
}

// ChatItem builds one liveChatMessages.list item of type textMessageEvent.
func ChatItem(id, author, authorChannelID, text, publishedAt string) map[string]any {
	return map[string]any{
		"id": id,
		"snippet": map[string]any{
			"type":           "textMessageEvent",
			"publishedAt":    publishedAt,
			"displayMessage": text,
			"textMessageDetails": map[string]any{
				"messageText": text,
			},
		},
		"authorDetails": map[string]any{
			"displayName": author,
			"channelId":   authorChannelID,
		},
	}
}
