package domain

import (
	"fmt"
	"strings"
)

type FailureCategory string

const (
	FailureNotFound    FailureCategory = "not_found"
	FailureTimeout     FailureCategory = "timeout"
	FailureUnavailable FailureCategory = "unavailable"
)

// FetchError is the typed error raised by source clients. The fetch
// orchestrator is the only layer that converts it into a degraded snapshot.
type FetchError struct {
	Category FailureCategory
	URL      string
	Cause    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Category)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewFetchError(category FailureCategory, url string, cause error) *FetchError {
	return &FetchError{Category: category, URL: strings.TrimSpace(url), Cause: cause}
}

// UserFacingSummary renders the failure as the explanatory text persisted on a
// degraded snapshot. Raw transport errors never reach readers.
func (e *FetchError) UserFacingSummary() string {
	if e == nil {
		return "Could not retrieve status data. Check the original source directly."
	}
	switch e.Category {
	case FailureNotFound:
		return "The status page could not be found; the URL may have changed. Check the original source directly."
	case FailureTimeout:
		return "The status source did not respond in time. Check the original source directly."
	default:
		return "The status source is currently unavailable. Check the original source directly."
	}
}
