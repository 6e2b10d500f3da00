package monitor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func textMsg(id, author, channel, text string) ChatMessage {
	return ChatMessage{ID: id, AuthorName: author, AuthorChannelID: channel, Text: text, Type: MessageText}
}

func TestDispatchBatchesOneCall(t *testing.T) {
	resp := &fakeResponder{}
	chat := &fakeChat{}
	d := NewDispatcher(resp, chat, NewSendLimiter(0), "own")

	msgs := []ChatMessage{
		textMsg("1", "alice", "c1", "hi"),
		textMsg("2", "bob", "c2", "hello"),
		textMsg("3", "carol", "c3", "hey"),
		textMsg("4", "dave", "c4", "yo"),
		textMsg("5", "erin", "c5", "sup"),
	}
	d.Dispatch(context.Background(), msgs, stream("a", StatusLive))

	if resp.batchCount() != 1 {
		t.Fatalf("expected exactly one responder call, got %d", resp.batchCount())
	}
	if len(resp.batches[0]) != 5 {
		t.Fatalf("batch size = %d, want 5", len(resp.batches[0]))
	}
}

func TestDispatchFiltersIneligible(t *testing.T) {
	resp := &fakeResponder{}
	chat := &fakeChat{}
	d := NewDispatcher(resp, chat, NewSendLimiter(0), "own")

	msgs := []ChatMessage{
		textMsg("1", "alice", "c1", "hi"),
		{ID: "2", AuthorName: "bob", AuthorChannelID: "c2", Text: "$5", Type: MessageSuperChat},
		textMsg("3", "bot", "own", "my own reply"),
		{ID: "4", AuthorName: "carol", AuthorChannelID: "c3", Text: "joined", Type: MessageNewMember},
	}
	d.Dispatch(context.Background(), msgs, stream("a", StatusLive))

	if resp.batchCount() != 1 {
		t.Fatalf("responder calls = %d", resp.batchCount())
	}
	batch := resp.batches[0]
	if len(batch) != 1 || batch[0].ID != "1" {
		t.Fatalf("expected only the eligible text message, got %v", batch)
	}
}

func TestDispatchSkipsAllIneligibleBatch(t *testing.T) {
	resp := &fakeResponder{}
	d := NewDispatcher(resp, &fakeChat{}, NewSendLimiter(0), "own")

	msgs := []ChatMessage{
		textMsg("1", "bot", "own", "mine"),
		{ID: "2", Type: MessageSuperChat, Text: "$5"},
	}
	d.Dispatch(context.Background(), msgs, stream("a", StatusLive))
	if resp.batchCount() != 0 {
		t.Fatal("responder called with an empty eligible batch")
	}
}

func TestDispatchMissingAuthorChannelIsEligible(t *testing.T) {
	resp := &fakeResponder{}
	d := NewDispatcher(resp, &fakeChat{}, NewSendLimiter(0), "own")

	d.Dispatch(context.Background(), []ChatMessage{textMsg("1", "ghost", "", "hi")}, stream("a", StatusLive))
	if resp.batchCount() != 1 {
		t.Fatal("message without author channel id should stay eligible")
	}
}

func TestDispatchSendsAcceptedReply(t *testing.T) {
	resp := &fakeResponder{decision: Decision{ShouldReply: true, Message: "welcome!", Confidence: 0.9}}
	chat := &fakeChat{}
	d := NewDispatcher(resp, chat, NewSendLimiter(0), "own")

	d.Dispatch(context.Background(), []ChatMessage{textMsg("1", "alice", "c1", "hi")}, stream("a", StatusLive))
	sends := chat.sentMessages()
	if len(sends) != 1 || sends[0] != "welcome!" {
		t.Fatalf("sends = %v", sends)
	}
}

func TestDispatchDropsInsideCooldown(t *testing.T) {
	resp := &fakeResponder{decision: Decision{ShouldReply: true, Message: "again"}}
	chat := &fakeChat{}
	d := NewDispatcher(resp, chat, NewSendLimiter(time.Hour), "own")

	msg := []ChatMessage{textMsg("1", "alice", "c1", "hi")}
	d.Dispatch(context.Background(), msg, stream("a", StatusLive))
	d.Dispatch(context.Background(), msg, stream("a", StatusLive))

	if got := chat.sentMessages(); len(got) != 1 {
		t.Fatalf("expected one send, cooldown drop for the second; got %d", len(got))
	}
}

func TestDispatchResponderErrorSwallowed(t *testing.T) {
	resp := &fakeResponder{err: errors.New("model unavailable")}
	chat := &fakeChat{}
	d := NewDispatcher(resp, chat, NewSendLimiter(0), "own")

	d.Dispatch(context.Background(), []ChatMessage{textMsg("1", "alice", "c1", "hi")}, stream("a", StatusLive))
	if len(chat.sentMessages()) != 0 {
		t.Fatal("send happened despite responder failure")
	}
}

func TestDispatchNoReplyDecision(t *testing.T) {
	resp := &fakeResponder{decision: Decision{ShouldReply: false, Message: "ignored"}}
	chat := &fakeChat{}
	d := NewDispatcher(resp, chat, NewSendLimiter(0), "own")

	d.Dispatch(context.Background(), []ChatMessage{textMsg("1", "alice", "c1", "hi")}, stream("a", StatusLive))
	if len(chat.sentMessages()) != 0 {
		t.Fatal("sent despite should_reply=false")
	}
}

func TestDispatchRelayingResponderSkipsSend(t *testing.T) {
	resp := &relayResponder{fakeResponder{decision: Decision{ShouldReply: true, Message: "spoken"}}}
	chat := &fakeChat{}
	d := NewDispatcher(resp, chat, NewSendLimiter(0), "own")

	d.Dispatch(context.Background(), []ChatMessage{textMsg("1", "alice", "c1", "hi")}, stream("a", StatusLive))
	if len(chat.sentMessages()) != 0 {
		t.Fatal("relaying responder must suppress the chat send")
	}
}

func TestDispatchNilResponder(t *testing.T) {
	chat := &fakeChat{}
	d := NewDispatcher(nil, chat, NewSendLimiter(0), "own")

	d.Dispatch(context.Background(), []ChatMessage{textMsg("1", "alice", "c1", "hi")}, stream("a", StatusLive))
	if len(chat.sentMessages()) != 0 {
		t.Fatal("display-only dispatcher sent a message")
	}
}
