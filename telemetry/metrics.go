// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	LifecyclePolls       prometheus.Counter
	LifecyclePollErrors  prometheus.Counter
	LifecycleTransitions *prometheus.CounterVec
	ChatFetches          prometheus.Counter
	ChatFetchErrors      *prometheus.CounterVec
	MessagesDisplayed    prometheus.Counter
	MessagesEligible     prometheus.Counter
	ResponderCalls       prometheus.Counter
	ResponderErrors      prometheus.Counter
	SendsAccepted        prometheus.Counter
	SendsDropped         prometheus.Counter
	SendErrors           prometheus.Counter
	WebhookErrors        prometheus.Counter

	// Histograms (seconds)
	ChatFetchDuration prometheus.Observer
	ResponderDuration prometheus.Observer

	// Gauges
	LiveGauge          prometheus.Gauge // 1 when a broadcast is live
	SessionActiveGauge prometheus.Gauge // 1 while a chat session is Active
	FailureStreakGauge prometheus.Gauge // consecutive lifecycle poll failures
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		LifecyclePolls = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_lifecycle_polls_total", Help: "Number of broadcast list polls"})
		LifecyclePollErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_lifecycle_poll_errors_total", Help: "Number of failed broadcast list polls"})
		LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{Name: "bot_lifecycle_transitions_total", Help: "Lifecycle transitions by kind"}, []string{"kind"})
		ChatFetches = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_chat_fetches_total", Help: "Number of chat page fetches"})
		ChatFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{Name: "bot_chat_fetch_errors_total", Help: "Failed chat fetches by error kind"}, []string{"kind"})
		MessagesDisplayed = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_messages_displayed_total", Help: "Chat messages delivered to the display sink"})
		MessagesEligible = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_messages_eligible_total", Help: "Chat messages handed to the responder"})
		ResponderCalls = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_responder_calls_total", Help: "Responder invocations"})
		ResponderErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_responder_errors_total", Help: "Responder failures (swallowed)"})
		SendsAccepted = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_sends_accepted_total", Help: "Outgoing chat sends accepted by the cooldown limiter"})
		SendsDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_sends_dropped_total", Help: "Outgoing chat sends dropped inside the cooldown"})
		SendErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_send_errors_total", Help: "Outgoing chat send failures"})
		WebhookErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_webhook_errors_total", Help: "Webhook delivery failures"})
		ChatFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "bot_chat_fetch_duration_seconds", Help: "Chat page fetch duration seconds", Buckets: prometheus.DefBuckets})
		ResponderDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "bot_responder_duration_seconds", Help: "Responder call duration seconds", Buckets: prometheus.DefBuckets})
		LiveGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "bot_livestream_live", Help: "1 while the tracked broadcast is live"})
		SessionActiveGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "bot_chat_session_active", Help: "1 while a chat session is actively polling"})
		FailureStreakGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "bot_lifecycle_failure_streak", Help: "Consecutive lifecycle poll failures"})
	})
}

// CountTransition records one lifecycle transition by kind.
func CountTransition(kind string) {
	if LifecycleTransitions != nil {
		LifecycleTransitions.WithLabelValues(kind).Inc()
	}
}

// CountChatFetchError records one failed chat fetch by classified kind.
func CountChatFetchError(kind string) {
	if ChatFetchErrors != nil {
		ChatFetchErrors.WithLabelValues(kind).Inc()
	}
}

// SetLive sets the live gauge.
func SetLive(live bool) {
	if LiveGauge != nil {
		if live {
			LiveGauge.Set(1)
		} else {
			LiveGauge.Set(0)
		}
	}
}

// SetSessionActive sets the chat session gauge.
func SetSessionActive(active bool) {
	if SessionActiveGauge != nil {
		if active {
			SessionActiveGauge.Set(1)
		} else {
			SessionActiveGauge.Set(0)
		}
	}
}

// SetFailureStreak records the consecutive lifecycle failure count.
func SetFailureStreak(n int) {
	if FailureStreakGauge != nil {
		FailureStreakGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
