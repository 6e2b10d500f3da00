// Package youtubeapi wraps Google OAuth2 client config and the YouTube Data
// API behind the monitor's broadcast and chat source interfaces. Tokens are
// persisted via the provided TokenStore so they can be refreshed and reused
// across restarts.
package youtubeapi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat-bot/config"
)

const provider = "youtube"

// TokenStore persists OAuth tokens between runs.
type TokenStore interface {
	UpsertOAuthToken(ctx context.Context, provider string, accessToken string, refreshToken string, expiry time.Time, scope string) error
	GetOAuthToken(ctx context.Context, provider string) (accessToken string, refreshToken string, expiry time.Time, scope string, err error)
}

// APIProvider hands out a ready *yt.Service. Auth is the production
// implementation; tests use StaticProvider.
type APIProvider interface {
	Service(ctx context.Context) (*yt.Service, error)
}

// Auth builds authenticated YouTube clients from a stored OAuth token,
// refreshing it when it nears expiry.
type Auth struct {
	store TokenStore
	oauth *oauth2.Config

	mu        sync.Mutex
	cached    *yt.Service
	cachedTok string
}

// NewAuth constructs the OAuth2 config from the loaded service config.
func NewAuth(cfg *config.Config, store TokenStore) *Auth {
	scopes := []string{"https://www.googleapis.com/auth/youtube.force-ssl"}
	if cfg.YTScopes != "" {
		// allow comma or space separated
		s := strings.ReplaceAll(cfg.YTScopes, ",", " ")
		if fields := strings.Fields(s); len(fields) > 0 {
			scopes = fields
		}
	}
	oc := &oauth2.Config{
		ClientID:     cfg.YTClientID,
		ClientSecret: cfg.YTClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.YTRedirectURI,
		Scopes:       scopes,
	}
	return &Auth{store: store, oauth: oc}
}

// AuthCodeURL returns the consent URL for the one-shot setup flow.
func (a *Auth) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and persists it.
func (a *Auth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	_ = a.store.UpsertOAuthToken(ctx, provider, tok.AccessToken, tok.RefreshToken, tok.Expiry, strings.Join(a.oauth.Scopes, " "))
	return tok, nil
}

func (a *Auth) refreshIfNeeded(ctx context.Context) (*oauth2.Token, error) {
	access, refresh, expiry, _, err := a.store.GetOAuthToken(ctx, provider)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, errors.New("no youtube token stored; run setup-oauth first")
	}
	tok := oauth2.Token{AccessToken: access, RefreshToken: refresh, Expiry: expiry}
	if time.Until(tok.Expiry) > 2*time.Minute {
		return &tok, nil
	}
	newTok, err := a.oauth.TokenSource(ctx, &tok).Token()
	if err != nil {
		return &tok, err
	}
	_ = a.store.UpsertOAuthToken(ctx, provider, newTok.AccessToken, newTok.RefreshToken, newTok.Expiry, strings.Join(a.oauth.Scopes, " "))
	return newTok, nil
}

// Service returns a YouTube client for the current token. The client is
// cached and rebuilt only when the access token rotates.
func (a *Auth) Service(ctx context.Context) (*yt.Service, error) {
	tok, err := a.refreshIfNeeded(ctx)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached != nil && a.cachedTok == tok.AccessToken {
		return a.cached, nil
	}
	svc, err := yt.NewService(ctx, option.WithHTTPClient(a.oauth.Client(context.WithoutCancel(ctx), tok)))
	if err != nil {
		return nil, err
	}
	a.cached = svc
	a.cachedTok = tok.AccessToken
	return svc, nil
}

// StaticProvider serves a fixed client; used in tests and the setup command.
type StaticProvider struct{ Svc *yt.Service }

func (p StaticProvider) Service(context.Context) (*yt.Service, error) { return p.Svc, nil }

// VerifyChannelAccess confirms the API reaches the configured channel. Run
// once at startup so a credential problem is loud before polling begins.
func VerifyChannelAccess(ctx context.Context, api APIProvider, channelID string) (title string, err error) {
	svc, err := api.Service(ctx)
	if err != nil {
		return "", err
	}
	resp, err := svc.Channels.List([]string{"snippet"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return "", classify("channels.list", err)
	}
	if len(resp.Items) == 0 {
		return "", errors.New("channel not found: " + channelID)
	}
	return resp.Items[0].Snippet.Title, nil
}
