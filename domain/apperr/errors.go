// Package apperr holds the error taxonomy shared by the publishing pipeline.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingAccounts is recorded when a user lacks one of the two delegated accounts.
var ErrMissingAccounts = errors.New("missing accounts")

// AuthError means the trigger secret was absent or wrong.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Reason
}

// ConfigError covers missing configuration and unsupported providers.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "config error: " + e.Msg }

// RefreshError is raised when a credential cannot be refreshed.
// Raw keeps the provider response for diagnostics.
type RefreshError struct {
	Provider string
	Msg      string
	Raw      string
	Err      error
}

func (e *RefreshError) Error() string {
	msg := fmt.Sprintf("refresh %s token failed", e.Provider)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Raw != "" {
		msg += ": " + e.Raw
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RefreshError) Unwrap() error { return e.Err }

// DownloadError is raised when the source asset cannot be fetched.
type DownloadError struct {
	Status int
	Body   string
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("drive download failed: %v", e.Err)
	}
	return fmt.Sprintf("drive download failed: %d %s", e.Status, e.Body)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// PublishPhase names the step of the two-phase publish that failed.
type PublishPhase string

const (
	PhaseCreate PublishPhase = "create"
	PhaseCommit PublishPhase = "commit"
)

// PublishError is raised by either phase of the destination publish.
type PublishError struct {
	Phase  PublishPhase
	Status int
	Raw    string
	Err    error
}

func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("instagram %s failed: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("instagram %s failed: %d %s", e.Phase, e.Status, e.Raw)
}

func (e *PublishError) Unwrap() error { return e.Err }

// CodecError means a sealed payload could not be opened.
type CodecError struct {
	Msg string
	Err error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return "codec: " + e.Msg + ": " + e.Err.Error()
	}
	return "codec: " + e.Msg
}

func (e *CodecError) Unwrap() error { return e.Err }

// ValidationError rejects malformed caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// PersistenceError wraps a failed storage operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence %s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError; nil stays nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func IsAuth(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

func IsConfig(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

func IsRefresh(err error) bool {
	var e *RefreshError
	return errors.As(err, &e)
}

func IsDownload(err error) bool {
	var e *DownloadError
	return errors.As(err, &e)
}

func IsPublish(err error) bool {
	var e *PublishError
	return errors.As(err, &e)
}

func IsCodec(err error) bool {
	var e *CodecError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsPersistence(err error) bool {
	var e *PersistenceError
	return errors.As(err, &e)
}

// HTTPStatus maps an error to the status code used by the HTTP layer.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsAuth(err):
		return http.StatusForbidden
	case IsConfig(err), IsValidation(err):
		return http.StatusBadRequest
	case IsRefresh(err), IsDownload(err), IsPublish(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
