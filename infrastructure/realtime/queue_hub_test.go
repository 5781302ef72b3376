package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_NotifyWithoutSubscribers(t *testing.T) {
	h := NewQueueHub()
	assert.NoError(t, h.Notify(context.Background(), model.QueueEvent{UserID: "nobody"}))
}

func TestHub_ServeRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewQueueHub()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/queue/stream", nil)
	h.Serve(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHub_StreamsEventsToOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewQueueHub()
	r := gin.New()
	r.GET("/stream", func(c *gin.Context) {
		c.Set("user_id", "u1")
		h.Serve(c)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ":ok\n", line)
	require.Eventually(t, func() bool { return h.Subscribers("u1") == 1 }, time.Second, 5*time.Millisecond)

	_ = h.Notify(ctx, model.QueueEvent{Type: "queue_status", UserID: "other", ItemID: 1})
	_ = h.Notify(ctx, model.QueueEvent{Type: "queue_status", UserID: "u1", ItemID: 2, Status: model.QueueStatusPosted})

	var event, data string
	for data == "" {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, "queue_status", event)
	assert.Contains(t, data, `"item_id":2`)
	assert.Contains(t, data, `"status":"posted"`)
}
