// Command livechat-bot watches a YouTube channel for livestreams, polls the
// active live chat, and forwards eligible messages to the AI responder.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Starts the livestream monitor with its chat polling sessions.
//   - Keeps the stored OAuth token fresh in the background.
//   - Exposes an HTTP server with /healthz, /readyz, /status, /chat/recent,
//     and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/onnwee/livechat-bot/ai"
	"github.com/onnwee/livechat-bot/config"
	"github.com/onnwee/livechat-bot/db"
	"github.com/onnwee/livechat-bot/display"
	"github.com/onnwee/livechat-bot/monitor"
	"github.com/onnwee/livechat-bot/notify"
	"github.com/onnwee/livechat-bot/oauth"
	"github.com/onnwee/livechat-bot/server"
	"github.com/onnwee/livechat-bot/telemetry"
	"github.com/onnwee/livechat-bot/voice"
	"github.com/onnwee/livechat-bot/youtubeapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	initLogging()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	shutdown, err := telemetry.InitTracing("livechat-bot", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	database, err := db.Connect(cfg.DBDsn)
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()

	// Versioned migrations are primary; embedded SQL is the fallback for
	// images built without the migration files.
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, falling back to embedded SQL",
			slog.Any("err", err), slog.String("component", "db_migrate"))
		if err := db.Migrate(context.Background(), database); err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := &db.TokenStoreAdapter{DB: database}
	auth := youtubeapi.NewAuth(cfg, store)

	var mon *monitor.Monitor
	if err := cfg.ValidateMonitorReady(); err != nil {
		slog.Warn("monitor disabled", slog.Any("err", err))
	} else {
		mon = buildMonitor(ctx, cfg, database, auth)
	}

	// Keep the stored YouTube token fresh independently of API traffic.
	oauth.StartRefresher(ctx, store, "youtube", 10*time.Minute, 20*time.Minute, func(rctx context.Context, refreshToken string) (string, string, time.Time, string, error) {
		oc := &oauth2.Config{ClientID: cfg.YTClientID, ClientSecret: cfg.YTClientSecret, Endpoint: google.Endpoint, RedirectURL: cfg.YTRedirectURI}
		newTok, err := oc.TokenSource(rctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		if err != nil {
			return "", "", time.Time{}, "", err
		}
		return newTok.AccessToken, newTok.RefreshToken, newTok.Expiry, "", nil
	})

	if os.Getenv("ENABLE_PPROF") == "1" {
		startPprof()
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handlers := server.NewHandlers(database, mon, auth)
	go func() {
		if err := server.Start(ctx, handlers, addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	if mon != nil {
		_ = db.SetKV(ctx, database, "monitor_state", "running")
		if err := mon.Run(ctx); err != nil {
			// Fatal poll failure streak. The HTTP server stays up so the
			// condition is visible on /readyz and /status.
			bg := context.WithoutCancel(ctx)
			_ = db.SetKV(bg, database, "monitor_state", "fatal")
			_ = db.SetKV(bg, database, "monitor_last_error", err.Error())
			if errors.Is(err, monitor.ErrTooManyFailures) {
				slog.Error("monitor stopped after repeated poll failures", slog.Any("err", err))
			} else {
				slog.Error("monitor stopped", slog.Any("err", err))
			}
		} else {
			_ = db.SetKV(context.WithoutCancel(ctx), database, "monitor_state", "stopped")
		}
	}

	<-ctx.Done()
	slog.Info("shutting down")
}

// buildMonitor wires the sources, responder, display, and sinks.
func buildMonitor(ctx context.Context, cfg *config.Config, database *sql.DB, auth *youtubeapi.Auth) *monitor.Monitor {
	if title, err := youtubeapi.VerifyChannelAccess(ctx, auth, cfg.ChannelID); err != nil {
		// the stored token may not exist yet; the first poll will surface it
		slog.Warn("channel access check failed", slog.Any("err", err))
	} else {
		slog.Info("channel access verified", slog.String("channel", title))
	}

	var responder monitor.Responder
	if cfg.GeminiAPIKey != "" {
		gem, err := ai.New(ctx, ai.Config{
			APIKey:       cfg.GeminiAPIKey,
			Model:        cfg.GeminiModel,
			SystemPrompt: cfg.SystemPrompt,
			MaxTokens:    cfg.AIMaxTokens,
			Temperature:  cfg.AITemperature,
		})
		if err != nil {
			slog.Error("gemini responder init failed, running display-only", slog.Any("err", err))
		} else {
			responder = gem
		}
	} else {
		slog.Info("GEMINI_API_KEY not set, running display-only")
	}

	if responder != nil && cfg.EnableVoice {
		synth, err := voice.NewSynthesizer(ctx, voice.Config{
			VoiceName: cfg.VoiceName,
			Language:  cfg.VoiceLanguage,
			AudioDir:  cfg.AudioDir,
			Player:    cfg.AudioPlayer,
		})
		if err != nil {
			slog.Error("voice synthesizer init failed, replies stay text-only", slog.Any("err", err))
		} else {
			responder = &voice.Responder{Inner: responder, Synth: synth, RelayText: true}
		}
	}

	deps := monitor.Deps{
		Broadcasts: &youtubeapi.BroadcastClient{API: auth},
		Chat:       &youtubeapi.ChatClient{API: auth},
		Responder:  responder,
		Display:    display.NewTerminal(),
		Recorder:   &db.Archive{DB: database},
	}
	if wh := notify.NewWebhook(cfg.WebhookURL); wh != nil {
		deps.Notifier = wh
	}
	return monitor.New(monitor.Config{
		PollInterval:   cfg.PollInterval,
		ChatInterval:   cfg.ChatInterval,
		SendCooldown:   cfg.SendCooldown,
		MaxFailures:    cfg.MaxFailures,
		BroadcastLimit: cfg.BroadcastLimit,
		ChatPageSize:   cfg.ChatPageSize,
		OwnChannelID:   cfg.ChannelID,
	}, deps)
}

func initLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()))
}

func startPprof() {
	pprofAddr := os.Getenv("PPROF_ADDR")
	if pprofAddr == "" {
		pprofAddr = "localhost:6060"
	}
	go func() {
		slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
		srv := &http.Server{
			Addr:              pprofAddr,
			Handler:           nil, // default mux exposes /debug/pprof
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("pprof server error", slog.Any("err", err))
		}
	}()
}
