package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/dto"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"
	"github.com/krishhhh88/instadrive-backend/interfaces/middleware"
	"github.com/krishhhh88/instadrive-backend/usecase"

	"github.com/gin-gonic/gin"
)

// stateTTL bounds how long a consent round trip may take.
const stateTTL = 10 * time.Minute

type IOAuthHandler interface {
	GetAuthURL(c *gin.Context)
	Callback(c *gin.Context)
}

type pendingState struct {
	userID  string
	expires time.Time
}

// OAuthHandler links one provider account to the caller through the authorization-code flow.
type OAuthHandler struct {
	connector   repository.IOAuthConnector
	credentials usecase.ICredentialUsecase
	stateMu     sync.Mutex
	states      map[string]pendingState
	now         func() time.Time
}

func NewOAuthHandler(connector repository.IOAuthConnector, credentials usecase.ICredentialUsecase) IOAuthHandler {
	return &OAuthHandler{
		connector:   connector,
		credentials: credentials,
		states:      map[string]pendingState{},
		now:         time.Now,
	}
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// GetAuthURL returns the consent URL for the authenticated user.
func (h *OAuthHandler) GetAuthURL(c *gin.Context) {
	state := randomState()
	now := h.now()

	h.stateMu.Lock()
	for s, p := range h.states {
		if now.After(p.expires) {
			delete(h.states, s)
		}
	}
	h.states[state] = pendingState{userID: middleware.UserID(c), expires: now.Add(stateTTL)}
	h.stateMu.Unlock()

	c.JSON(http.StatusOK, gin.H{"auth_url": h.connector.AuthCodeURL(state), "state": state})
}

// Callback exchanges the code and stores the sealed tokens for the user bound to state.
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider := h.connector.Provider()
	lg := logger.GetLogger().WithField("provider", provider)

	if reason := c.Query("error"); reason != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": reason})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	state := c.Query("state")
	h.stateMu.Lock()
	pending, ok := h.states[state]
	if ok {
		delete(h.states, state)
	}
	h.stateMu.Unlock()
	if !ok || h.now().After(pending.expires) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}

	tok, err := h.connector.Exchange(c.Request.Context(), code)
	if err != nil {
		lg.WithField("error", err).Error("OAuth code exchange failed")
		respondError(c, err)
		return
	}
	if err := h.credentials.Connect(c.Request.Context(), pending.userID, provider, tok); err != nil {
		respondError(c, err)
		return
	}

	if c.Query("frontend") == "1" {
		c.Header("Content-Type", "text/html; charset=utf-8")
		_, _ = c.Writer.Write([]byte(fmt.Sprintf(`<!DOCTYPE html><html><head><title>Connected</title></head><body><script>if (window.opener){window.opener.postMessage({source:'%s-oauth',connected:true},'*');window.close();}else{document.write('%s connected');}</script></body></html>`, provider, provider)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "provider": provider})
}

type IAccountHandler interface {
	Status(c *gin.Context)
}

type AccountHandler struct {
	accountUsecase usecase.IAccountUsecase
}

func NewAccountHandler(accountUsecase usecase.IAccountUsecase) IAccountHandler {
	return &AccountHandler{accountUsecase: accountUsecase}
}

func (h *AccountHandler) Status(c *gin.Context) {
	status, err := h.accountUsecase.Status(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AccountStatusResponse{Accounts: status})
}
