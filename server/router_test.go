package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "github.com/krishhhh88/instadrive-backend/interfaces/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type countingPipeline struct{ calls int }

func (p *countingPipeline) RunTrigger(context.Context, time.Time) (int, error) {
	p.calls++
	return 0, nil
}

func newTestRouter(p *countingPipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return InitiateRouter(
		RouterConfig{Origins: []string{"http://localhost:3000"}, SecretKey: "jwt", CronSecret: "s3cret"},
		Handlers{
			Cron:     httpHandler.NewCronHandler(p, time.Second),
			Queue:    httpHandler.NewQueueHandler(nil),
			Schedule: httpHandler.NewScheduleHandler(nil),
			Drive:    httpHandler.NewDriveHandler(nil),
			Account:  httpHandler.NewAccountHandler(nil),
			Health:   httpHandler.NewHealthHandler(nil),
		},
	)
}

func TestRouter_TriggerWithoutSecretIsForbidden(t *testing.T) {
	p := &countingPipeline{}
	r := newTestRouter(p)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/cron/run-jobs", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, w.Body.String())
	assert.Zero(t, p.calls)
}

func TestRouter_TriggerAcceptsEveryHeaderChannel(t *testing.T) {
	p := &countingPipeline{}
	r := newTestRouter(p)

	for _, h := range []struct{ key, value string }{
		{"X-Vercel-Cron", "s3cret"},
		{"Authorization", "Bearer s3cret"},
		{"X-Cron-Secret", "s3cret"},
	} {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			req := httptest.NewRequest(method, "/api/cron/run-jobs", nil)
			req.Header.Set(h.key, h.value)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, h.key)
			assert.JSONEq(t, `{"ok":true,"processed":0}`, w.Body.String())
		}
	}
	assert.Equal(t, 6, p.calls)
}

func TestRouter_UserRoutesRequireToken(t *testing.T) {
	r := newTestRouter(&countingPipeline{})

	for _, path := range []string{"/api/queue", "/api/schedule", "/api/drive/files", "/api/accounts/status"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_Healthz(t *testing.T) {
	r := newTestRouter(&countingPipeline{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
