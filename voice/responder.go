package voice

import (
	"context"
	"log/slog"

	"github.com/onnwee/livechat-bot/monitor"
)

// Responder decorates another responder so accepted replies are also spoken.
// When RelayText is false the dispatcher skips the chat send and the voice
// path is the only delivery channel.
type Responder struct {
	Inner     monitor.Responder
	Synth     *Synthesizer
	RelayText bool
}

// Decide forwards to the inner responder and, on an accepted reply, kicks off
// synthesis. Synthesis failures are logged and never affect the decision.
func (r *Responder) Decide(ctx context.Context, batch []monitor.ChatMessage, stream monitor.StreamContext) (monitor.Decision, error) {
	decision, err := r.Inner.Decide(ctx, batch, stream)
	if err != nil {
		return decision, err
	}
	if decision.ShouldReply && decision.Message != "" && r.Synth != nil {
		if path, err := r.Synth.Speak(ctx, decision.Message); err != nil {
			slog.Warn("voice synthesis failed", slog.Any("err", err), slog.String("component", "voice"))
		} else {
			slog.Info("reply synthesized", slog.String("path", path), slog.String("component", "voice"))
		}
	}
	return decision, nil
}

// RelaysReply implements monitor.ReplyRelayer.
func (r *Responder) RelaysReply() bool { return !r.RelayText }

// UpdateStreamContext forwards context updates to the inner responder.
func (r *Responder) UpdateStreamContext(ctx context.Context, stream monitor.StreamContext) {
	if u, ok := r.Inner.(monitor.ContextUpdater); ok {
		u.UpdateStreamContext(ctx, stream)
	}
}
