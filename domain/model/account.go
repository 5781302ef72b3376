package model

import "time"

// Provider identifies the remote identity behind a DelegatedAccount.
type Provider string

const (
	// ProviderGoogle is the cloud-storage identity (Google Drive source).
	ProviderGoogle Provider = "google"
	// ProviderFacebook is the social-media identity (Instagram destination).
	ProviderFacebook Provider = "facebook"
)

// Providers is the closed set of supported providers.
var Providers = []Provider{ProviderGoogle, ProviderFacebook}

func (p Provider) Valid() bool {
	for _, v := range Providers {
		if v == p {
			return true
		}
	}
	return false
}

// DelegatedAccount stores sealed OAuth credentials per (user, provider)
type DelegatedAccount struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"user_id"`
	Provider        Provider   `json:"provider"`
	AccessTokenEnc  *string    `json:"-"`
	RefreshTokenEnc *string    `json:"-"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Scope           string     `json:"scope"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RefreshedToken is what a provider hands back after a refresh or exchange.
// A nil ExpiresAt means the token is treated as non-expiring.
type RefreshedToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scope        string
}
