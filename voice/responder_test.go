package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/livechat-bot/monitor"
)

type stubResponder struct {
	decision monitor.Decision
	err      error
	calls    int
	stream   monitor.StreamContext
}

func (s *stubResponder) Decide(_ context.Context, _ []monitor.ChatMessage, _ monitor.StreamContext) (monitor.Decision, error) {
	s.calls++
	return s.decision, s.err
}

func (s *stubResponder) UpdateStreamContext(_ context.Context, stream monitor.StreamContext) {
	s.stream = stream
}

func TestDecideForwardsToInner(t *testing.T) {
	inner := &stubResponder{decision: monitor.Decision{ShouldReply: true, Message: "hi", Confidence: 0.9}}
	r := &Responder{Inner: inner, RelayText: true}

	got, err := r.Decide(context.Background(), nil, monitor.StreamContext{})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d", inner.calls)
	}
	if !got.ShouldReply || got.Message != "hi" {
		t.Fatalf("decision = %+v", got)
	}
}

func TestDecidePropagatesInnerError(t *testing.T) {
	wantErr := errors.New("model down")
	r := &Responder{Inner: &stubResponder{err: wantErr}}
	if _, err := r.Decide(context.Background(), nil, monitor.StreamContext{}); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestRelaysReply(t *testing.T) {
	if (&Responder{RelayText: true}).RelaysReply() {
		t.Error("RelayText true means the dispatcher still sends, RelaysReply must be false")
	}
	if !(&Responder{RelayText: false}).RelaysReply() {
		t.Error("voice-only mode must report RelaysReply true")
	}
}

func TestUpdateStreamContextForwards(t *testing.T) {
	inner := &stubResponder{}
	r := &Responder{Inner: inner}
	r.UpdateStreamContext(context.Background(), monitor.StreamContext{Title: "t"})
	if inner.stream.Title != "t" {
		t.Fatalf("stream not forwarded: %+v", inner.stream)
	}
}
