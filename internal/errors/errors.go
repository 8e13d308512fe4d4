// Package errors provides custom error types for ruffle-manager
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrFeedUnreachable     = errors.New("release feed unreachable")
	ErrFeedMalformed       = errors.New("release feed malformed")
	ErrAssetNotFound       = errors.New("no matching asset in latest release")
	ErrUnsupportedPlatform = errors.New("operating system not supported by Ruffle")
	ErrInstallInProgress   = errors.New("an install is already running for this target")
	ErrInvalidTarget       = errors.New("invalid target (expected standalone or web)")
	ErrRateLimited         = errors.New("GitHub API rate limit exceeded")
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized: invalid or expired token")
)

// Stage identifies the installer step that failed
type Stage string

const (
	StageCleanup  Stage = "cleanup"
	StageDownload Stage = "download"
	StageUnpack   Stage = "unpack"
)

// InstallError represents a failed installer run
type InstallError struct {
	Stage Stage
	Dir   string
	Err   error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s failed in %s: %v", e.Stage, e.Dir, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// NewInstallError creates a new install error for the given stage
func NewInstallError(stage Stage, dir string, err error) *InstallError {
	return &InstallError{Stage: stage, Dir: dir, Err: err}
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// APIError represents a GitHub API error
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GitHub API error (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new API error
func NewAPIError(statusCode int, message string, err error) *APIError {
	return &APIError{StatusCode: statusCode, Message: message, Err: err}
}

// IsInstallStage reports whether err is an InstallError for the given stage
func IsInstallStage(err error, stage Stage) bool {
	var installErr *InstallError
	if errors.As(err, &installErr) {
		return installErr.Stage == stage
	}
	return false
}

// IsRateLimited checks if the error is a rate limit error
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 403 || apiErr.StatusCode == 429
	}
	return errors.Is(err, ErrRateLimited)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return errors.Is(err, ErrNotFound)
}
