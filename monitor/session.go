package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/livechat-bot/telemetry"
)

// SessionState is the chat session state machine. A session only ever moves
// forward; a stopped session is never reused.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionVerifying
	SessionActive
	SessionStopped
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionVerifying:
		return "verifying"
	case SessionActive:
		return "active"
	default:
		return "stopped"
	}
}

// chatSession owns the pagination token for one chat session. All token and
// fetch handling happens on the session goroutine; stopping cancels the
// session context and any in-flight result is discarded, so a stale
// completion can never touch a newer session.
type chatSession struct {
	sid      string
	chatID   string
	stream   LivestreamInfo
	interval time.Duration
	pageSize int64

	broadcasts BroadcastSource
	chat       ChatSource
	dispatcher *Dispatcher
	display    DisplaySink
	recorder   Recorder

	cancel context.CancelFunc
	done   chan struct{}
	log    *slog.Logger

	mu    sync.Mutex
	state SessionState

	token string
}

func newChatSession(stream LivestreamInfo, interval time.Duration, pageSize int64, broadcasts BroadcastSource, chat ChatSource, dispatcher *Dispatcher, display DisplaySink, recorder Recorder) *chatSession {
	sid := uuid.New().String()[:8]
	return &chatSession{
		sid:        sid,
		chatID:     stream.LiveChatID,
		stream:     stream,
		interval:   interval,
		pageSize:   pageSize,
		broadcasts: broadcasts,
		chat:       chat,
		dispatcher: dispatcher,
		display:    display,
		recorder:   recorder,
		done:       make(chan struct{}),
		log:        slog.Default().With(slog.String("session", sid), slog.String("chat_id", stream.LiveChatID), slog.String("component", "chat_session")),
	}
}

// State returns the current session state.
func (s *chatSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *chatSession) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	telemetry.SetSessionActive(st == SessionActive)
}

// stop cancels the session. The goroutine notices on its next operation;
// in-flight fetch results are dropped, not applied.
func (s *chatSession) stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// run drives Idle -> Verifying -> Active -> Stopped. It exits on context
// cancellation or any session-fatal fetch error.
func (s *chatSession) run(ctx context.Context) {
	defer close(s.done)
	defer s.setState(SessionStopped)

	s.setState(SessionVerifying)
	if !s.verify(ctx) {
		s.log.Warn("chat verification failed; session not started")
		return
	}
	s.log.Info("chat session active", slog.Duration("interval", s.interval))
	s.setState(SessionActive)

	// A fresh session always starts at the head of the chat: no token.
	s.token = ""
	if err := s.fetchOnce(ctx); err != nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("chat session stopped")
			return
		case <-ticker.C:
			if err := s.fetchOnce(ctx); err != nil {
				return
			}
		}
	}
}

// verify confirms the target broadcast is still live for this chat id and
// probes the chat with a 1-item fetch. Any failure keeps the session out of
// Active.
func (s *chatSession) verify(ctx context.Context) bool {
	items, err := s.broadcasts.ListBroadcasts(ctx, 5)
	if err != nil {
		s.log.Warn("broadcast check failed", slog.Any("err", err))
		return false
	}
	found := false
	for _, it := range items {
		if it.LiveChatID == s.chatID {
			if it.Status != StatusLive {
				s.log.Warn("broadcast not live", slog.String("status", string(it.Status)))
				return false
			}
			found = true
			break
		}
	}
	if !found {
		s.log.Warn("no active broadcast for chat id")
		return false
	}
	if _, err := s.chat.ListMessages(ctx, s.chatID, "", 1); err != nil {
		kind := Classify(err)
		if kind == KindPermissionDenied {
			s.log.Error("chat probe denied; check oauth credentials", slog.Any("err", err))
		} else {
			s.log.Warn("chat probe failed", slog.String("kind", kind.String()), slog.Any("err", err))
		}
		return false
	}
	return true
}

// fetchOnce pulls the next page, delivers every message downstream, and
// advances the token. A non-nil return stops the session.
func (s *chatSession) fetchOnce(ctx context.Context) error {
	telemetry.ChatFetches.Inc()
	start := time.Now()
	page, err := s.chat.ListMessages(ctx, s.chatID, s.token, s.pageSize)
	telemetry.ChatFetchDuration.Observe(time.Since(start).Seconds())
	if ctx.Err() != nil {
		// Stopped while the fetch was in flight; discard whatever came back.
		return ctx.Err()
	}
	if err != nil {
		kind := Classify(err)
		telemetry.CountChatFetchError(kind.String())
		if !sessionFatal(kind) {
			s.log.Warn("chat fetch failed; retrying next tick", slog.Any("err", err))
			return nil
		}
		switch kind {
		case KindPermissionDenied:
			s.log.Error("chat access denied; stopping session (check oauth credentials)", slog.Any("err", err))
		case KindInvalidToken:
			s.log.Warn("pagination token rejected; stopping session", slog.Any("err", err))
		case KindNotFound:
			s.log.Warn("chat not found; the broadcast may have ended", slog.Any("err", err))
		default:
			s.log.Warn("unclassified chat error; stopping session", slog.Any("err", err))
		}
		return err
	}

	for _, m := range page.Messages {
		if s.display != nil {
			s.display.Show(m)
		}
		telemetry.MessagesDisplayed.Inc()
		if s.recorder != nil {
			if err := s.recorder.RecordMessage(ctx, s.stream.ID, m); err != nil {
				s.log.Warn("chat archive insert failed", slog.Any("err", err))
			}
		}
	}
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, page.Messages, s.stream)
	}
	// An empty continuation token means "no newer page yet"; keep the current
	// token so the next fetch resumes from the same boundary.
	if page.NextToken != "" {
		s.token = page.NextToken
	}
	return nil
}
