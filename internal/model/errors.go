package model

import (
	"errors"
	"fmt"
)

var (
	// ErrCollaboratorUnavailable marks an OCR/ASR/classifier/demuxer that is not configured or not loaded
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrBlocked marks a page that answered with a bot-protection interstitial
	ErrBlocked = errors.New("page blocks automated access")

	// ErrInsufficientContent marks a page with too little visible text to analyse
	ErrInsufficientContent = errors.New("page content too short or unavailable")
)

// InputError rejects an empty or malformed request payload
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewInputError creates an InputError
func NewInputError(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}

// FetchError reports a network, status or blocked-access failure
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError reports a single frame or audio segment that could not be processed
type ExtractionError struct {
	Step string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IsInputError reports whether err is an InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsFetchError reports whether err is a FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
