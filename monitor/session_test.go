package monitor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func startSessionForTest(t *testing.T, s *chatSession) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	t.Cleanup(cancel)
	go s.run(ctx)
}

func waitDone(t *testing.T, s *chatSession) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop in time")
	}
}

func waitCalls(t *testing.T, chat *fakeChat, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if len(chat.listCalls()) >= n {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("waiting for %d chat calls, have %d", n, len(chat.listCalls()))
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func liveStream() LivestreamInfo { return stream("a", StatusLive) }

func TestSessionStopsWhenBroadcastMissing(t *testing.T) {
	broadcasts := &fakeBroadcasts{script: []pollResult{{items: nil}}}
	chat := &fakeChat{}
	s := newChatSession(liveStream(), 5*time.Millisecond, 200, broadcasts, chat, nil, nil, nil)

	startSessionForTest(t, s)
	waitDone(t, s)
	if s.State() != SessionStopped {
		t.Fatalf("state = %v", s.State())
	}
	if len(chat.listCalls()) != 0 {
		t.Fatal("chat fetched despite failed verification")
	}
}

func TestSessionStopsWhenBroadcastNotLive(t *testing.T) {
	ls := liveStream()
	notLive := ls
	notLive.Status = StatusUpcoming
	broadcasts := &fakeBroadcasts{script: []pollResult{{items: []LivestreamInfo{notLive}}}}
	chat := &fakeChat{}
	s := newChatSession(ls, 5*time.Millisecond, 200, broadcasts, chat, nil, nil, nil)

	startSessionForTest(t, s)
	waitDone(t, s)
	if len(chat.listCalls()) != 0 {
		t.Fatal("chat fetched for a broadcast that is not live")
	}
}

func TestSessionStopsWhenProbeFails(t *testing.T) {
	ls := liveStream()
	broadcasts := &fakeBroadcasts{script: []pollResult{{items: []LivestreamInfo{ls}}}}
	chat := &fakeChat{script: []chatResult{
		{err: &SourceError{Kind: KindPermissionDenied, Op: "liveChatMessages.list", Err: errors.New("forbidden")}},
	}}
	s := newChatSession(ls, 5*time.Millisecond, 200, broadcasts, chat, nil, nil, nil)

	startSessionForTest(t, s)
	waitDone(t, s)
	calls := chat.listCalls()
	if len(calls) != 1 {
		t.Fatalf("expected only the probe fetch, got %d", len(calls))
	}
	if calls[0].maxResults != 1 {
		t.Fatalf("probe should fetch a single message, got %d", calls[0].maxResults)
	}
	if s.State() != SessionStopped {
		t.Fatalf("state = %v", s.State())
	}
}

func TestSessionDeliversMessagesAndAdvancesToken(t *testing.T) {
	ls := liveStream()
	broadcasts := &fakeBroadcasts{script: []pollResult{{items: []LivestreamInfo{ls}}}}
	chat := &fakeChat{script: []chatResult{
		{page: ChatPage{}}, // probe
		{page: ChatPage{Messages: []ChatMessage{textMsg("1", "alice", "c1", "hi")}, NextToken: "t1"}},
		{page: ChatPage{Messages: []ChatMessage{textMsg("2", "bob", "c2", "yo")}, NextToken: "t2"}},
	}}
	display := &fakeDisplay{}
	rec := &fakeRecorder{}
	s := newChatSession(ls, 5*time.Millisecond, 200, broadcasts, chat, nil, display, rec)

	startSessionForTest(t, s)
	waitCalls(t, chat, 3)
	s.stop()
	waitDone(t, s)

	calls := chat.listCalls()
	if calls[1].pageToken != "" {
		t.Fatalf("first session fetch must start from the head, got token %q", calls[1].pageToken)
	}
	if calls[2].pageToken != "t1" {
		t.Fatalf("second fetch should use the continuation token, got %q", calls[2].pageToken)
	}
	shown := display.shown()
	if len(shown) < 2 {
		t.Fatalf("display received %d messages", len(shown))
	}
	if len(rec.messages) < 2 {
		t.Fatalf("recorder received %d messages", len(rec.messages))
	}
}

func TestSessionKeepsTokenWhenResponseOmitsIt(t *testing.T) {
	ls := liveStream()
	broadcasts := &fakeBroadcasts{script: []pollResult{{items: []LivestreamInfo{ls}}}}
	chat := &fakeChat{script: []chatResult{
		{page: ChatPage{}}, // probe
		{page: ChatPage{NextToken: "t1"}},
		{page: ChatPage{}}, // no continuation token
		{page: ChatPage{}},
	}}
	s := newChatSession(ls, 5*time.Millisecond, 200, broadcasts, chat, nil, nil, nil)

	startSessionForTest(t, s)
	waitCalls(t, chat, 4)
	s.stop()
	waitDone(t, s)

	calls := chat.listCalls()
	if calls[2].pageToken != "t1" || calls[3].pageToken != "t1" {
		t.Fatalf("missing continuation token must not reset pagination: %+v", calls[2:])
	}
}

func TestSessionSurvivesTransientFetchError(t *testing.T) {
	ls := liveStream()
	broadcasts := &fakeBroadcasts{script: []pollResult{{items: []LivestreamInfo{ls}}}}
	chat := &fakeChat{script: []chatResult{
		{page: ChatPage{}}, // probe
		{err: &SourceError{Kind: KindTransient, Op: "liveChatMessages.list", Err: errors.New("timeout")}},
		{page: ChatPage{NextToken: "t1"}},
	}}
	s := newChatSession(ls, 5*time.Millisecond, 200, broadcasts, chat, nil, nil, nil)

	startSessionForTest(t, s)
	waitCalls(t, chat, 3)
	if s.State() != SessionActive {
		t.Fatalf("transient error stopped the session: %v", s.State())
	}
	s.stop()
	waitDone(t, s)
}

func TestSessionStopsOnFatalFetchError(t *testing.T) {
	ls := liveStream()
	broadcasts := &fakeBroadcasts{script: []pollResult{{items: []LivestreamInfo{ls}}}}
	chat := &fakeChat{script: []chatResult{
		{page: ChatPage{}}, // probe
		{err: &SourceError{Kind: KindNotFound, Op: "liveChatMessages.list", Err: errors.New("liveChatNotFound")}},
	}}
	s := newChatSession(ls, 5*time.Millisecond, 200, broadcasts, chat, nil, nil, nil)

	startSessionForTest(t, s)
	waitDone(t, s)
	if s.State() != SessionStopped {
		t.Fatalf("state = %v", s.State())
	}
	// a stopped session never fetches again
	n := len(chat.listCalls())
	time.Sleep(30 * time.Millisecond)
	if len(chat.listCalls()) != n {
		t.Fatal("stopped session kept fetching")
	}
}

func TestSessionStateStrings(t *testing.T) {
	want := map[SessionState]string{
		SessionIdle:      "idle",
		SessionVerifying: "verifying",
		SessionActive:    "active",
		SessionStopped:   "stopped",
	}
	for st, s := range want {
		if st.String() != s {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), s)
		}
	}
}
