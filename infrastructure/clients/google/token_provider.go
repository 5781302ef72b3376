package google

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// DefaultTokenURL is Google's OAuth token endpoint.
const DefaultTokenURL = "https://oauth2.googleapis.com/token"

// defaultTokenLifetime applies when the token response omits expires_in.
const defaultTokenLifetime = time.Hour

// Config carries the OAuth client registered with Google.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURL     string
	HTTPClient   *http.Client
}

// TokenProvider refreshes Google access tokens with a stored refresh token.
type TokenProvider struct {
	oauth  *oauth2.Config
	client *http.Client
	now    func() time.Time
}

func NewTokenProvider(cfg Config) *TokenProvider {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenProvider{oauth: OAuthConfig(cfg), client: client, now: time.Now}
}

// OAuthConfig builds the authorization-code config used by both the connect flow and refreshes.
// Client credentials travel in the form body, matching what Google's token endpoint expects.
func OAuthConfig(cfg Config) *oauth2.Config {
	endpoint := googleoauth.Endpoint
	endpoint.TokenURL = DefaultTokenURL
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoint,
		Scopes: []string{
			drive.DriveReadonlyScope,
			"openid",
			"email",
			"profile",
		},
	}
}

var (
	_ repository.ITokenProvider  = (*TokenProvider)(nil)
	_ repository.IOAuthConnector = (*TokenProvider)(nil)
)

func (p *TokenProvider) Provider() model.Provider { return model.ProviderGoogle }

func (p *TokenProvider) Refresh(ctx context.Context, refreshToken string) (*model.RefreshedToken, error) {
	if refreshToken == "" {
		return nil, &apperr.RefreshError{Provider: string(model.ProviderGoogle), Msg: "no refresh token"}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, refreshError(err)
	}
	return p.toRefreshed(tok, refreshToken), nil
}

// Exchange trades an authorization code from the connect flow for tokens.
func (p *TokenProvider) Exchange(ctx context.Context, code string) (*model.RefreshedToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.oauth.Exchange(ctx, code, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, refreshError(err)
	}
	return p.toRefreshed(tok, ""), nil
}

// AuthCodeURL returns the consent URL; offline access plus forced consent yields a refresh token.
func (p *TokenProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (p *TokenProvider) toRefreshed(tok *oauth2.Token, fallbackRefresh string) *model.RefreshedToken {
	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = p.now().Add(defaultTokenLifetime)
	}
	expiresAt = expiresAt.UTC()
	out := &model.RefreshedToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    &expiresAt,
	}
	if out.RefreshToken == "" {
		out.RefreshToken = fallbackRefresh
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	return out
}

func refreshError(err error) error {
	re := &apperr.RefreshError{Provider: string(model.ProviderGoogle), Err: err}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		re.Raw = string(rerr.Body)
		re.Err = nil
		if rerr.Response != nil {
			re.Msg = rerr.Response.Status
		}
	}
	return re
}
