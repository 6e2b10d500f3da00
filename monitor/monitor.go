package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/livechat-bot/telemetry"
)

// Config holds the monitor's polling knobs. Zero values are replaced with
// defaults matching a small channel's quota budget.
type Config struct {
	PollInterval   time.Duration // lifecycle poll cadence
	ChatInterval   time.Duration // chat fetch cadence while a session is active
	SendCooldown   time.Duration // minimum spacing between outgoing chat sends
	MaxFailures    int           // consecutive lifecycle failures before the monitor stops
	BroadcastLimit int64         // max broadcast records per lifecycle poll
	ChatPageSize   int64         // max chat messages per fetch
	OwnChannelID   string        // the bot's channel id, for self-filtering
}

func (c *Config) withDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.ChatInterval <= 0 {
		c.ChatInterval = 5 * time.Second
	}
	if c.SendCooldown <= 0 {
		c.SendCooldown = 10 * time.Second
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 3
	}
	if c.BroadcastLimit <= 0 {
		c.BroadcastLimit = 5
	}
	if c.ChatPageSize <= 0 {
		c.ChatPageSize = 200
	}
}

// Deps are the monitor's collaborators. Broadcasts and Chat are required;
// the rest may be nil to disable the corresponding path.
type Deps struct {
	Broadcasts BroadcastSource
	Chat       ChatSource
	Responder  Responder
	Notifier   Notifier
	Display    DisplaySink
	Recorder   Recorder
}

// Snapshot is the monitor's externally visible state, served by /status so an
// operator can tell "no stream right now" apart from "monitor stopped".
type Snapshot struct {
	Running             bool            `json:"running"`
	Current             *LivestreamInfo `json:"current,omitempty"`
	SessionState        string          `json:"session_state"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	LastError           string          `json:"last_error,omitempty"`
}

// Monitor drives the lifecycle tracker and at most one chat session.
type Monitor struct {
	cfg        Config
	tracker    *Tracker
	dispatcher *Dispatcher
	deps       Deps

	mu       sync.Mutex
	session  *chatSession
	running  bool
	lastErr  error
	current  *LivestreamInfo
	failures int
}

// New builds a monitor from config and collaborators.
func New(cfg Config, deps Deps) *Monitor {
	cfg.withDefaults()
	return &Monitor{
		cfg:        cfg,
		tracker:    NewTracker(deps.Broadcasts, cfg.BroadcastLimit, cfg.MaxFailures),
		dispatcher: NewDispatcher(deps.Responder, deps.Chat, NewSendLimiter(cfg.SendCooldown), cfg.OwnChannelID),
		deps:       deps,
	}
}

// Run polls the broadcast list until ctx is done or the lifecycle source
// fails MaxFailures times in a row. The returned error is nil on a clean
// shutdown and wraps ErrTooManyFailures on the terminal path.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("livestream monitor starting",
		slog.Duration("poll_interval", m.cfg.PollInterval),
		slog.Duration("chat_interval", m.cfg.ChatInterval),
		slog.String("component", "monitor"))
	m.setRunning(true)
	defer m.setRunning(false)
	defer m.stopSession()

	// Immediate first poll so we don't wait a full interval after boot.
	if err := m.tickOnce(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("livestream monitor stopped", slog.String("component", "monitor"))
			return nil
		case <-ticker.C:
			if err := m.tickOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// tickOnce runs one lifecycle poll to completion. Only the terminal
// failure-ceiling error is returned; transient poll errors are logged and
// absorbed.
func (m *Monitor) tickOnce(ctx context.Context) error {
	telemetry.LifecyclePolls.Inc()
	events, err := m.tracker.Tick(ctx)

	m.mu.Lock()
	m.failures = m.tracker.Failures()
	if cur, ok := m.tracker.Current(); ok {
		c := cur
		m.current = &c
	} else {
		m.current = nil
	}
	m.mu.Unlock()
	telemetry.SetFailureStreak(m.tracker.Failures())

	if err != nil {
		telemetry.LifecyclePollErrors.Inc()
		if errors.Is(err, ErrTooManyFailures) {
			m.setErr(err)
			slog.Error("lifecycle polling failed repeatedly; stopping monitor",
				slog.Any("err", err), slog.String("component", "monitor"))
			return err
		}
		slog.Warn("lifecycle poll failed; retrying next tick",
			slog.String("kind", Classify(err).String()), slog.Any("err", err), slog.String("component", "monitor"))
		return nil
	}
	for _, ev := range events {
		m.handleEvent(ctx, ev)
	}
	if cur, ok := m.tracker.Current(); ok {
		telemetry.SetLive(cur.Status == StatusLive)
	} else {
		telemetry.SetLive(false)
	}
	return nil
}

func (m *Monitor) handleEvent(ctx context.Context, ev Event) {
	ls := ev.Livestream
	telemetry.CountTransition(string(ev.Kind))
	switch ev.Kind {
	case EventStart:
		slog.Info("livestream detected",
			slog.String("id", ls.ID), slog.String("title", ls.Title),
			slog.String("status", string(ls.Status)), slog.String("url", ls.URL),
			slog.String("component", "monitor"))
		m.dispatcher.UpdateStreamContext(ctx, ls)
		if ls.Status == StatusLive && ls.LiveChatID != "" {
			m.startSession(ctx, ls)
		}
	case EventStatusChange:
		slog.Info("livestream status changed",
			slog.String("id", ls.ID), slog.String("status", string(ls.Status)),
			slog.String("component", "monitor"))
		m.dispatcher.UpdateStreamContext(ctx, ls)
		if ls.Status == StatusLive && ls.LiveChatID != "" {
			m.startSession(ctx, ls)
		} else if ls.Status == StatusEnded {
			m.stopSession()
		}
	case EventEnd:
		slog.Info("livestream ended",
			slog.String("id", ls.ID), slog.String("title", ls.Title),
			slog.Duration("duration", ls.Duration()),
			slog.String("component", "monitor"))
		m.stopSession()
	}
	if m.deps.Recorder != nil {
		if err := m.deps.Recorder.RecordEvent(ctx, ev); err != nil {
			slog.Warn("event record failed", slog.Any("err", err), slog.String("component", "monitor"))
		}
	}
	if m.deps.Notifier != nil {
		m.deps.Notifier.Notify(ctx, ev)
	}
}

// startSession replaces any existing session with a fresh one for ls. A new
// session always begins in Idle and must pass Verifying before it polls.
func (m *Monitor) startSession(ctx context.Context, ls LivestreamInfo) {
	m.stopSession()
	s := newChatSession(ls, m.cfg.ChatInterval, m.cfg.ChatPageSize,
		m.deps.Broadcasts, m.deps.Chat, m.dispatcher, m.deps.Display, m.deps.Recorder)
	sctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
	slog.Info("starting chat session", slog.String("chat_id", ls.LiveChatID), slog.String("component", "monitor"))
	go s.run(sctx)
}

func (m *Monitor) stopSession() {
	m.mu.Lock()
	s := m.session
	m.session = nil
	m.mu.Unlock()
	if s != nil {
		s.stop()
	}
}

func (m *Monitor) setRunning(v bool) {
	m.mu.Lock()
	m.running = v
	m.mu.Unlock()
}

func (m *Monitor) setErr(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// State returns a point-in-time snapshot for the status endpoint.
func (m *Monitor) State() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Running:             m.running,
		ConsecutiveFailures: m.failures,
		SessionState:        SessionIdle.String(),
	}
	if m.current != nil {
		c := *m.current
		snap.Current = &c
	}
	if m.session != nil {
		snap.SessionState = m.session.State().String()
	}
	if m.lastErr != nil {
		snap.LastError = m.lastErr.Error()
	}
	return snap
}
