package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenProvider_Refresh(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"client_id":     r.PostForm.Get("client_id"),
			"client_secret": r.PostForm.Get("client_secret"),
			"refresh_token": r.PostForm.Get("refresh_token"),
			"grant_type":    r.PostForm.Get("grant_type"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.fresh","token_type":"Bearer","expires_in":1800,"scope":"https://www.googleapis.com/auth/drive.readonly"}`))
	}))
	defer srv.Close()

	p := NewTokenProvider(Config{ClientID: "cid", ClientSecret: "csecret", TokenURL: srv.URL})
	before := time.Now()
	tok, err := p.Refresh(context.Background(), "1//refresh")
	require.NoError(t, err)

	assert.Equal(t, "ya29.fresh", tok.AccessToken)
	assert.Equal(t, "1//refresh", tok.RefreshToken)
	assert.Equal(t, "https://www.googleapis.com/auth/drive.readonly", tok.Scope)
	require.NotNil(t, tok.ExpiresAt)
	assert.WithinDuration(t, before.Add(30*time.Minute), *tok.ExpiresAt, 5*time.Second)
	assert.Equal(t, map[string]string{
		"client_id":     "cid",
		"client_secret": "csecret",
		"refresh_token": "1//refresh",
		"grant_type":    "refresh_token",
	}, gotForm)
	assert.Equal(t, model.ProviderGoogle, p.Provider())
}

func TestTokenProvider_Refresh_DefaultLifetime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.noexp","token_type":"Bearer"}`))
	}))
	defer srv.Close()

	fixed := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	p := NewTokenProvider(Config{ClientID: "cid", ClientSecret: "cs", TokenURL: srv.URL})
	p.now = func() time.Time { return fixed }

	tok, err := p.Refresh(context.Background(), "rt")
	require.NoError(t, err)
	require.NotNil(t, tok.ExpiresAt)
	assert.Equal(t, fixed.Add(time.Hour), *tok.ExpiresAt)
}

func TestTokenProvider_Refresh_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	}))
	defer srv.Close()

	p := NewTokenProvider(Config{ClientID: "cid", ClientSecret: "cs", TokenURL: srv.URL})
	_, err := p.Refresh(context.Background(), "revoked")
	require.Error(t, err)
	assert.True(t, apperr.IsRefresh(err))
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestTokenProvider_Refresh_NoRefreshToken(t *testing.T) {
	p := NewTokenProvider(Config{ClientID: "cid"})
	_, err := p.Refresh(context.Background(), "")
	assert.True(t, apperr.IsRefresh(err))
}

func TestTokenProvider_AuthCodeURL(t *testing.T) {
	p := NewTokenProvider(Config{ClientID: "cid", RedirectURL: "https://app.example/auth/google/callback"})
	u := p.AuthCodeURL("state-123")
	assert.Contains(t, u, "accounts.google.com")
	assert.Contains(t, u, "state=state-123")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "drive.readonly")
}
