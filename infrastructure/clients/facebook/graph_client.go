package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"golang.org/x/time/rate"
)

// GraphConfig configures the Instagram publisher.
type GraphConfig struct {
	BusinessAccountID string
	GraphURL          string
	APIVersion        string
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// GraphClient publishes videos to an Instagram business account in two phases:
// a media container is created from the upload, then committed with media_publish.
type GraphClient struct {
	igUserID string
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
}

func NewGraphClient(cfg GraphConfig) repository.IInstagram {
	base := strings.TrimRight(cfg.GraphURL, "/")
	if base == "" {
		base = DefaultGraphURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = "v16.0"
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	client := cfg.HTTPClient
	if client == nil {
		// uploads can be large; per-entry contexts bound the total time
		client = &http.Client{}
	}
	return &GraphClient{
		igUserID: cfg.BusinessAccountID,
		baseURL:  base + "/" + version,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(rps), 2),
	}
}

func (c *GraphClient) Publish(ctx context.Context, accessToken string, video io.Reader, fileName, caption string) (*model.PublishResult, error) {
	if c.igUserID == "" {
		return nil, &apperr.ConfigError{Msg: "INSTAGRAM_BUSINESS_ACCOUNT_ID not set"}
	}
	creationID, err := c.createContainer(ctx, accessToken, video, fileName, caption)
	if err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("creation_id", creationID).Debug("Instagram media container created")

	raw, err := c.commit(ctx, accessToken, creationID)
	if err != nil {
		return nil, err
	}
	res := &model.PublishResult{CreationID: creationID, Raw: raw}
	var published struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(raw, &published) == nil {
		res.MediaID = published.ID
	}
	return res, nil
}

func (c *GraphClient) createContainer(ctx context.Context, accessToken string, video io.Reader, fileName, caption string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &apperr.PublishError{Phase: apperr.PhaseCreate, Err: err}
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeVideoForm(mw, video, fileName, caption))
	}()

	endpoint := fmt.Sprintf("%s/%s/media", c.baseURL, url.PathEscape(c.igUserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return "", &apperr.PublishError{Phase: apperr.PhaseCreate, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(req, apperr.PhaseCreate)
	if err != nil {
		return "", err
	}
	var container struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &container); err != nil || container.ID == "" {
		return "", &apperr.PublishError{Phase: apperr.PhaseCreate, Status: http.StatusOK, Raw: string(body)}
	}
	return container.ID, nil
}

func writeVideoForm(mw *multipart.Writer, video io.Reader, fileName, caption string) error {
	if err := mw.WriteField("media_type", "VIDEO"); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("video_file", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, video); err != nil {
		return err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
	}
	return mw.Close()
}

func (c *GraphClient) commit(ctx context.Context, accessToken, creationID string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &apperr.PublishError{Phase: apperr.PhaseCommit, Err: err}
	}
	form := url.Values{}
	form.Set("creation_id", creationID)
	endpoint := fmt.Sprintf("%s/%s/media_publish", c.baseURL, url.PathEscape(c.igUserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &apperr.PublishError{Phase: apperr.PhaseCommit, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(req, apperr.PhaseCommit)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// do sends the request and rejects non-2xx answers as well as 2xx bodies carrying an "error" object.
func (c *GraphClient) do(req *http.Request, phase apperr.PublishPhase) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &apperr.PublishError{Phase: phase, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyLen))
	if err != nil {
		return nil, &apperr.PublishError{Phase: phase, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || hasGraphError(body) {
		return nil, &apperr.PublishError{Phase: phase, Status: resp.StatusCode, Raw: string(bytes.TrimSpace(body))}
	}
	return body, nil
}

func hasGraphError(body []byte) bool {
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &probe) != nil {
		return false
	}
	return len(probe.Error) > 0 && string(probe.Error) != "null"
}
