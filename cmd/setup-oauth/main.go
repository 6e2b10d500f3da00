// Command setup-oauth runs the one-shot YouTube OAuth consent flow from a
// terminal: it prints the consent URL, waits for the pasted authorization
// code, and persists the resulting token so the bot can start unattended.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/onnwee/livechat-bot/config"
	"github.com/onnwee/livechat-bot/db"
	"github.com/onnwee/livechat-bot/youtubeapi"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if cfg.YTClientID == "" || cfg.YTClientSecret == "" {
		slog.Error("missing YT_CLIENT_ID / YT_CLIENT_SECRET")
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DBDsn)
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer database.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx, database); err != nil {
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}

	auth := youtubeapi.NewAuth(cfg, &db.TokenStoreAdapter{DB: database})

	fmt.Println("Open this URL in a browser and authorize the bot's channel:")
	fmt.Println()
	fmt.Println("  " + auth.AuthCodeURL("setup"))
	fmt.Println()
	fmt.Print("Paste the authorization code here: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		slog.Error("read code failed", slog.Any("err", err))
		os.Exit(1)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		slog.Error("empty authorization code")
		os.Exit(1)
	}

	tok, err := auth.Exchange(ctx, code)
	if err != nil {
		slog.Error("token exchange failed", slog.Any("err", err))
		os.Exit(1)
	}
	fmt.Printf("Token stored. Access token expires %s.\n", tok.Expiry.Format("2006-01-02 15:04:05"))

	if cfg.ChannelID != "" {
		if title, err := youtubeapi.VerifyChannelAccess(ctx, auth, cfg.ChannelID); err != nil {
			slog.Warn("channel access check failed", slog.Any("err", err))
		} else {
			fmt.Printf("Verified access to channel %q.\n", title)
		}
	}
}
