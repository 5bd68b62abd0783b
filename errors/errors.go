// Package errors defines the failure taxonomy shared by the drive clients,
// the walkers and the export driver.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	ErrRemoteAPI     = errors.New("remote api error")
	ErrScrapeFetch   = errors.New("scrape fetch error")
	ErrTitleNotFound = errors.New("title not found")
	ErrIOError       = errors.New("io error")
	ErrInvalidConfig = errors.New("invalid config")
)

type wrapError struct {
	underlying error
	msg        string
	cause      error
}

var _ error = (*wrapError)(nil)

// NewAPIError wraps a failed listing, metadata, document or download call.
func NewAPIError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrRemoteAPI,
		msg:        msg,
		cause:      cause,
	}
}

func NewIOError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrIOError,
		msg:        msg,
		cause:      cause,
	}
}

// NewConfigError reports flags or settings that cannot be used as given.
func NewConfigError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrInvalidConfig,
		msg:        msg,
		cause:      cause,
	}
}

func (err *wrapError) Error() string {
	if err == nil {
		return "(*wrapError)(nil)"
	}
	message := err.underlying.Error() + ": " + err.msg
	if err.cause != nil {
		message += ": " + err.cause.Error()
	}
	return message
}

func (err *wrapError) Unwrap() []error {
	if err.cause == nil {
		return []error{err.underlying}
	}
	return []error{err.underlying, err.cause}
}

// ScrapeFetchError reports a non-200 response for a public folder page.
type ScrapeFetchError struct {
	FolderID   string
	StatusCode int
	Status     string
}

func (e *ScrapeFetchError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: folder %s: %s", ErrScrapeFetch, e.FolderID, status)
}

func (e *ScrapeFetchError) Is(target error) bool {
	return target == ErrScrapeFetch
}

// TitleNotFoundError reports a folder page whose markup lacks the expected title.
type TitleNotFoundError struct {
	FolderID string
}

func (e *TitleNotFoundError) Error() string {
	return fmt.Sprintf("%s: folder %s", ErrTitleNotFound, e.FolderID)
}

func (e *TitleNotFoundError) Is(target error) bool {
	return target == ErrTitleNotFound
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var fetchErr *ScrapeFetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	return 0
}
