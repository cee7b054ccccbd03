package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Scopes requested at sign-in: spreadsheet and Drive access plus identity.
var Scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
	"openid",
	"email",
	"profile",
}

// Profile is the subset of the user's identity the app shows.
type Profile struct {
	Email string
	Name  string
}

// Provider is the identity provider behind the gate.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Profile(ctx context.Context, tok *oauth2.Token) (Profile, error)
	TokenSource(tok *oauth2.Token) oauth2.TokenSource
}

// ProviderConfig selects and configures a provider. Local wins over any
// Google credentials.
type ProviderConfig struct {
	Local        bool
	ClientID     string
	ClientSecret string
	ClientJSON   string
	ClientFile   string
	RedirectURL  string
}

// NewProvider builds the provider described by cfg, or returns
// ErrMissingCredentials.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.Local {
		return LocalProvider{}, nil
	}
	oc, err := oauthConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &GoogleProvider{config: oc}, nil
}

func oauthConfig(cfg ProviderConfig) (*oauth2.Config, error) {
	var raw []byte
	switch {
	case cfg.ClientJSON != "":
		raw = []byte(cfg.ClientJSON)
	case cfg.ClientFile != "":
		b, err := os.ReadFile(cfg.ClientFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		raw = b
	}
	if raw != nil {
		oc, err := google.ConfigFromJSON(raw, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("oauth config: %w", err)
		}
		if cfg.RedirectURL != "" {
			oc.RedirectURL = cfg.RedirectURL
		}
		return oc, nil
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       Scopes,
	}, nil
}

// GoogleProvider runs the OAuth2 web flow against Google and reads the
// profile from the userinfo endpoint.
type GoogleProvider struct {
	config  *oauth2.Config
	apiOpts []option.ClientOption
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

func (p *GoogleProvider) Profile(ctx context.Context, tok *oauth2.Token) (Profile, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(p.config.TokenSource(ctx, tok))}, p.apiOpts...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return Profile{}, fmt.Errorf("create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Profile{}, fmt.Errorf("get userinfo: %w", err)
	}
	name := info.Name
	if name == "" {
		name = info.Email
	}
	return Profile{Email: info.Email, Name: name}, nil
}

// TokenSource refreshes the token as needed. It deliberately uses a
// background context because it outlives the callback request.
func (p *GoogleProvider) TokenSource(tok *oauth2.Token) oauth2.TokenSource {
	return p.config.TokenSource(context.Background(), tok)
}

// LocalProvider signs everyone in as a fixed local user without leaving the
// app. It backs DATA_BACKEND=memory.
type LocalProvider struct{}

const localCode = "local"

func (LocalProvider) AuthCodeURL(state string) string {
	q := url.Values{"state": {state}, "code": {localCode}}
	return "/auth/callback?" + q.Encode()
}

func (LocalProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if code != localCode {
		return nil, errors.New("unexpected local authorization code")
	}
	return &oauth2.Token{AccessToken: "local", TokenType: "Bearer"}, nil
}

func (LocalProvider) Profile(context.Context, *oauth2.Token) (Profile, error) {
	return Profile{Email: "local@localhost", Name: "Local User"}, nil
}

func (LocalProvider) TokenSource(tok *oauth2.Token) oauth2.TokenSource {
	return oauth2.StaticTokenSource(tok)
}
