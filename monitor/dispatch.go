package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/livechat-bot/telemetry"
)

// Dispatcher filters a fetch's messages down to the eligible batch and hands
// it to the response collaborator in a single call. Collaborator and send
// failures are logged and swallowed; a missed reply is acceptable, a stuck
// poller is not.
type Dispatcher struct {
	responder    Responder
	chat         ChatSource
	limiter      *SendLimiter
	ownChannelID string
}

// NewDispatcher wires a dispatcher. responder may be nil, which disables the
// collaborator path entirely (display-only operation).
func NewDispatcher(responder Responder, chat ChatSource, limiter *SendLimiter, ownChannelID string) *Dispatcher {
	return &Dispatcher{responder: responder, chat: chat, limiter: limiter, ownChannelID: ownChannelID}
}

// eligible reports whether msg may be handed to the collaborator: text-only,
// and never the bot's own messages (otherwise it would react to its replies).
func (d *Dispatcher) eligible(m ChatMessage) bool {
	if m.Type != MessageText {
		return false
	}
	return m.AuthorChannelID == "" || m.AuthorChannelID != d.ownChannelID
}

// Dispatch batches the eligible messages from one fetch into one collaborator
// call and, when told to reply, relays the message through the send limiter.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []ChatMessage, stream LivestreamInfo) {
	if d.responder == nil || len(msgs) == 0 {
		return
	}
	batch := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if d.eligible(m) {
			batch = append(batch, m)
		}
	}
	if len(batch) == 0 {
		return
	}
	telemetry.MessagesEligible.Add(float64(len(batch)))
	telemetry.ResponderCalls.Inc()

	start := time.Now()
	decision, err := d.responder.Decide(ctx, batch, StreamContext{
		Title:       stream.Title,
		Description: stream.Description,
		Viewers:     stream.ConcurrentViewers,
	})
	telemetry.ResponderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.ResponderErrors.Inc()
		slog.Warn("responder failed; continuing to poll", slog.Any("err", err), slog.Int("batch", len(batch)), slog.String("component", "dispatch"))
		return
	}
	slog.Debug("responder decision", slog.Bool("should_reply", decision.ShouldReply), slog.Float64("confidence", decision.Confidence), slog.String("reason", decision.Reason), slog.String("component", "dispatch"))

	if !decision.ShouldReply || decision.Message == "" || stream.LiveChatID == "" {
		return
	}
	if r, ok := d.responder.(ReplyRelayer); ok && r.RelaysReply() {
		// The responder delivers its own reply (voice path); no chat send.
		return
	}
	if !d.limiter.Allow() {
		telemetry.SendsDropped.Inc()
		slog.Debug("send dropped inside cooldown", slog.String("component", "dispatch"))
		return
	}
	telemetry.SendsAccepted.Inc()
	if err := d.chat.SendMessage(ctx, stream.LiveChatID, decision.Message); err != nil {
		telemetry.SendErrors.Inc()
		slog.Warn("chat send failed", slog.Any("err", err), slog.String("component", "dispatch"))
		return
	}
	slog.Info("replied to chat", slog.String("message", decision.Message), slog.Float64("confidence", decision.Confidence), slog.String("component", "dispatch"))
}

// UpdateStreamContext pushes stream context to the responder when it cares.
func (d *Dispatcher) UpdateStreamContext(ctx context.Context, stream LivestreamInfo) {
	if u, ok := d.responder.(ContextUpdater); ok {
		u.UpdateStreamContext(ctx, StreamContext{
			Title:       stream.Title,
			Description: stream.Description,
			Viewers:     stream.ConcurrentViewers,
		})
	}
}
