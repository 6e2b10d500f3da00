package monitor

import (
	"context"
	"sync"
)

// fakeBroadcasts replays a scripted sequence of poll results. The last entry
// repeats once the script runs out.
type fakeBroadcasts struct {
	mu     sync.Mutex
	script []pollResult
	calls  int
}

type pollResult struct {
	items []LivestreamInfo
	err   error
}

func (f *fakeBroadcasts) ListBroadcasts(_ context.Context, _ int64) ([]LivestreamInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	f.calls++
	r := f.script[i]
	return r.items, r.err
}

type chatCall struct {
	chatID     string
	pageToken  string
	maxResults int64
}

// fakeChat replays scripted pages and records every list and send call.
type fakeChat struct {
	mu     sync.Mutex
	script []chatResult
	calls  []chatCall
	sends  []string
	sendErr error
}

type chatResult struct {
	page ChatPage
	err  error
}

func (f *fakeChat) ListMessages(_ context.Context, chatID, pageToken string, maxResults int64) (ChatPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.calls)
	f.calls = append(f.calls, chatCall{chatID: chatID, pageToken: pageToken, maxResults: maxResults})
	if len(f.script) == 0 {
		return ChatPage{}, nil
	}
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	r := f.script[i]
	return r.page, r.err
}

func (f *fakeChat) SendMessage(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sends = append(f.sends, text)
	return nil
}

func (f *fakeChat) listCalls() []chatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]chatCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeChat) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sends))
	copy(out, f.sends)
	return out
}

// fakeResponder returns a fixed decision and records each batch it saw.
type fakeResponder struct {
	mu       sync.Mutex
	decision Decision
	err      error
	batches  [][]ChatMessage
	contexts []StreamContext
}

func (f *fakeResponder) Decide(_ context.Context, batch []ChatMessage, stream StreamContext) (Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]ChatMessage, len(batch))
	copy(cp, batch)
	f.batches = append(f.batches, cp)
	f.contexts = append(f.contexts, stream)
	return f.decision, f.err
}

func (f *fakeResponder) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// relayResponder is a fakeResponder that claims to deliver its own replies.
type relayResponder struct{ fakeResponder }

func (r *relayResponder) RelaysReply() bool { return true }

type fakeDisplay struct {
	mu   sync.Mutex
	msgs []ChatMessage
}

func (f *fakeDisplay) Show(msg ChatMessage) {
	f.mu.Lock()
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()
}

func (f *fakeDisplay) shown() []ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ChatMessage, len(f.msgs))
	copy(out, f.msgs)
	return out
}

type fakeRecorder struct {
	mu       sync.Mutex
	events   []Event
	messages []ChatMessage
}

func (f *fakeRecorder) RecordEvent(_ context.Context, ev Event) error {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	return nil
}

func (f *fakeRecorder) RecordMessage(_ context.Context, _ string, msg ChatMessage) error {
	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeRecorder) recordedEvents() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeNotifier) Notify(_ context.Context, ev Event) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *fakeNotifier) notified() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}
