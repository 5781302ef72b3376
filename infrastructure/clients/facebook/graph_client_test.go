package facebook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphClient_Publish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fb-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v16.0/1789/media":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "VIDEO", r.FormValue("media_type"))
			assert.Equal(t, "sunset", r.FormValue("caption"))
			f, hdr, err := r.FormFile("video_file")
			require.NoError(t, err)
			defer f.Close()
			b, _ := io.ReadAll(f)
			assert.Equal(t, "clip.mp4", hdr.Filename)
			assert.Equal(t, "video-bytes", string(b))
			_, _ = w.Write([]byte(`{"id":"container-1"}`))
		case "/v16.0/1789/media_publish":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "container-1", r.PostForm.Get("creation_id"))
			_, _ = w.Write([]byte(`{"id":"media-99"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewGraphClient(GraphConfig{BusinessAccountID: "1789", GraphURL: srv.URL, RequestsPerSecond: 100})
	res, err := c.Publish(context.Background(), "fb-token", strings.NewReader("video-bytes"), "clip.mp4", "sunset")
	require.NoError(t, err)
	assert.Equal(t, "container-1", res.CreationID)
	assert.Equal(t, "media-99", res.MediaID)
	assert.JSONEq(t, `{"id":"media-99"}`, string(res.Raw))
}

func TestGraphClient_Publish_CreateFailureSkipsCommit(t *testing.T) {
	var commits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/media_publish") {
			atomic.AddInt32(&commits, 1)
		}
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	}))
	defer srv.Close()

	c := NewGraphClient(GraphConfig{BusinessAccountID: "1789", GraphURL: srv.URL, RequestsPerSecond: 100})
	_, err := c.Publish(context.Background(), "fb-token", strings.NewReader("x"), "clip.mp4", "")
	require.Error(t, err)
	var perr *apperr.PublishError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, apperr.PhaseCreate, perr.Phase)
	assert.Equal(t, http.StatusBadRequest, perr.Status)
	assert.Contains(t, perr.Raw, "Invalid parameter")
	assert.Zero(t, atomic.LoadInt32(&commits))
}

func TestGraphClient_Publish_CommitErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		if strings.HasSuffix(r.URL.Path, "/media") {
			_, _ = w.Write([]byte(`{"id":"container-2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"message":"Media ID is not available","code":9007}}`))
	}))
	defer srv.Close()

	c := NewGraphClient(GraphConfig{BusinessAccountID: "1789", GraphURL: srv.URL, RequestsPerSecond: 100})
	_, err := c.Publish(context.Background(), "fb-token", strings.NewReader("x"), "clip.mp4", "")
	var perr *apperr.PublishError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, apperr.PhaseCommit, perr.Phase)
	assert.Contains(t, perr.Raw, "9007")
}

func TestGraphClient_Publish_MissingAccountID(t *testing.T) {
	c := NewGraphClient(GraphConfig{})
	_, err := c.Publish(context.Background(), "fb-token", strings.NewReader("x"), "clip.mp4", "")
	assert.True(t, apperr.IsConfig(err))
}
