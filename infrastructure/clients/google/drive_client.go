package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/spf13/afero"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	videoQuery    = "mimeType contains 'video/'"
	listPageSize  = 100
	listFields    = "files(id,name,mimeType,thumbnailLink,modifiedTime,videoMediaMetadata)"
	maxErrBodyLen = 4096
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// DriveClient reads videos from a user's Google Drive.
type DriveClient struct {
	fs       afero.Fs
	tempDir  string
	endpoint string
	base     *http.Client
}

type DriveOption func(*DriveClient)

// WithEndpoint points the client at another Drive base URL.
func WithEndpoint(endpoint string) DriveOption {
	return func(c *DriveClient) { c.endpoint = endpoint }
}

// WithTempDir sets where downloaded assets are written.
func WithTempDir(dir string) DriveOption {
	return func(c *DriveClient) { c.tempDir = dir }
}

// WithBaseHTTPClient sets the transport that carries the bearer token.
func WithBaseHTTPClient(client *http.Client) DriveOption {
	return func(c *DriveClient) { c.base = client }
}

func NewDriveClient(fs afero.Fs, opts ...DriveOption) repository.IDrive {
	c := &DriveClient{fs: fs, tempDir: os.TempDir(), base: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *DriveClient) service(ctx context.Context, accessToken string) (*drive.Service, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return drive.NewService(ctx, opts...)
}

// Fetch streams the file content into a temp file. The caller owns the returned asset.
func (c *DriveClient) Fetch(ctx context.Context, accessToken, fileID string) (*model.TempAsset, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, &apperr.DownloadError{Err: err}
	}
	resp, err := svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, downloadError(err)
	}
	defer resp.Body.Close()

	if err := c.fs.MkdirAll(c.tempDir, 0o700); err != nil {
		return nil, &apperr.DownloadError{Err: err}
	}
	f, err := afero.TempFile(c.fs, c.tempDir, unsafeNameChars.ReplaceAllString(fileID, "_")+"-*")
	if err != nil {
		return nil, &apperr.DownloadError{Err: err}
	}
	asset := &model.TempAsset{Fs: c.fs, Path: f.Name(), Name: fileID + ".mp4"}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if rerr := asset.Release(); rerr != nil {
			logger.GetLogger().WithField("path", asset.Path).WithField("error", rerr).Warn("Failed to remove partial download")
		}
		return nil, &apperr.DownloadError{Status: resp.StatusCode, Err: fmt.Errorf("write temp file: %w", copyErr)}
	}
	asset.Size = n
	return asset, nil
}

// ListVideos returns up to one page of the user's video files.
func (c *DriveClient) ListVideos(ctx context.Context, accessToken string) ([]model.DriveFile, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	list, err := svc.Files.List().
		Q(videoQuery).
		PageSize(listPageSize).
		Fields(googleapi.Field(listFields)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, downloadError(err)
	}
	files := make([]model.DriveFile, 0, len(list.Files))
	for _, f := range list.Files {
		df := model.DriveFile{
			ID:            f.Id,
			Name:          f.Name,
			MimeType:      f.MimeType,
			ThumbnailLink: f.ThumbnailLink,
			ModifiedTime:  f.ModifiedTime,
		}
		if m := f.VideoMediaMetadata; m != nil {
			df.DurationMs = m.DurationMillis
			df.Width = m.Width
			df.Height = m.Height
		}
		files = append(files, df)
	}
	return files, nil
}

func downloadError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		body := gerr.Body
		if len(body) > maxErrBodyLen {
			body = body[:maxErrBodyLen]
		}
		return &apperr.DownloadError{Status: gerr.Code, Body: body}
	}
	return &apperr.DownloadError{Err: err}
}
