package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"

	"github.com/google/go-querystring/query"
)

// DefaultGraphURL is the Graph API host used for token exchange and publishing.
const DefaultGraphURL = "https://graph.facebook.com"

const maxBodyLen = 1 << 20

// Config carries the Facebook app credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	GraphURL     string
	APIVersion   string
	HTTPClient   *http.Client
}

func (c Config) graphURL() string {
	if c.GraphURL == "" {
		return DefaultGraphURL
	}
	return strings.TrimRight(c.GraphURL, "/")
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return &http.Client{Timeout: 30 * time.Second}
	}
	return c.HTTPClient
}

type exchangeParams struct {
	GrantType       string `url:"grant_type"`
	ClientID        string `url:"client_id"`
	ClientSecret    string `url:"client_secret"`
	FbExchangeToken string `url:"fb_exchange_token"`
}

type codeParams struct {
	ClientID     string `url:"client_id"`
	ClientSecret string `url:"client_secret"`
	RedirectURI  string `url:"redirect_uri"`
	Code         string `url:"code"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenProvider renews Facebook user tokens through the long-lived token exchange.
// The stored "refresh token" is the previous long-lived access token.
type TokenProvider struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

func NewTokenProvider(cfg Config) *TokenProvider {
	return &TokenProvider{cfg: cfg, client: cfg.httpClient(), now: time.Now}
}

var (
	_ repository.ITokenProvider  = (*TokenProvider)(nil)
	_ repository.IOAuthConnector = (*TokenProvider)(nil)
)

func (p *TokenProvider) Provider() model.Provider { return model.ProviderFacebook }

func (p *TokenProvider) Refresh(ctx context.Context, refreshToken string) (*model.RefreshedToken, error) {
	if refreshToken == "" {
		return nil, &apperr.RefreshError{Provider: string(model.ProviderFacebook), Msg: "no refresh token"}
	}
	v, err := query.Values(exchangeParams{
		GrantType:       "fb_exchange_token",
		ClientID:        p.cfg.ClientID,
		ClientSecret:    p.cfg.ClientSecret,
		FbExchangeToken: refreshToken,
	})
	if err != nil {
		return nil, &apperr.RefreshError{Provider: string(model.ProviderFacebook), Err: err}
	}
	return p.tokenRequest(ctx, p.cfg.graphURL()+"/oauth/access_token?"+v.Encode())
}

// Exchange trades an authorization code for a short-lived token, then upgrades it
// to a long-lived one. The long-lived token doubles as the stored refresh token.
func (p *TokenProvider) Exchange(ctx context.Context, code string) (*model.RefreshedToken, error) {
	v, err := query.Values(codeParams{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		RedirectURI:  p.cfg.RedirectURL,
		Code:         code,
	})
	if err != nil {
		return nil, &apperr.RefreshError{Provider: string(model.ProviderFacebook), Err: err}
	}
	short, err := p.tokenRequest(ctx, p.cfg.graphURL()+"/"+p.version()+"/oauth/access_token?"+v.Encode())
	if err != nil {
		return nil, err
	}
	long, err := p.Refresh(ctx, short.AccessToken)
	if err != nil {
		return nil, err
	}
	long.RefreshToken = long.AccessToken
	return long, nil
}

// AuthCodeURL builds the Facebook login dialog URL.
func (p *TokenProvider) AuthCodeURL(state string) string {
	v, _ := query.Values(struct {
		ClientID    string `url:"client_id"`
		RedirectURI string `url:"redirect_uri"`
		State       string `url:"state"`
		Scope       string `url:"scope"`
	}{
		ClientID:    p.cfg.ClientID,
		RedirectURI: p.cfg.RedirectURL,
		State:       state,
		Scope:       "instagram_basic,instagram_content_publish,pages_show_list,pages_read_engagement",
	})
	return "https://www.facebook.com/" + p.version() + "/dialog/oauth?" + v.Encode()
}

func (p *TokenProvider) version() string {
	if p.cfg.APIVersion == "" {
		return "v16.0"
	}
	return p.cfg.APIVersion
}

func (p *TokenProvider) tokenRequest(ctx context.Context, rawURL string) (*model.RefreshedToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &apperr.RefreshError{Provider: string(model.ProviderFacebook), Err: err}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &apperr.RefreshError{Provider: string(model.ProviderFacebook), Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyLen))
	if err != nil {
		return nil, &apperr.RefreshError{Provider: string(model.ProviderFacebook), Err: err}
	}

	var tr tokenResponse
	decodeErr := json.Unmarshal(body, &tr)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || decodeErr != nil || hasGraphError(body) {
		return nil, &apperr.RefreshError{
			Provider: string(model.ProviderFacebook),
			Msg:      fmt.Sprintf("status %d", resp.StatusCode),
			Raw:      string(body),
		}
	}
	if tr.AccessToken == "" {
		return nil, &apperr.RefreshError{Provider: string(model.ProviderFacebook), Msg: "response missing access_token", Raw: string(body)}
	}

	out := &model.RefreshedToken{AccessToken: tr.AccessToken}
	if tr.ExpiresIn > 0 {
		exp := p.now().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
		out.ExpiresAt = &exp
	}
	return out, nil
}
