package entsoe

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidQuery is returned for a query without a usable time window.
var ErrInvalidQuery = errors.New("invalid query")

type MissingCredentialsError struct {
	Vars []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing portal credentials, set %s", strings.Join(e.Vars, " and "))
}

// AuthenticationError is returned when the portal rejects the login.
// Reason is human readable, Raw is the portal's answer.
type AuthenticationError struct {
	Reason string
	Raw    string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

// SchemaError means an export did not look like expected, typically
// because the portal changed its columns.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return "unexpected export schema: " + e.Reason
	}
	return fmt.Sprintf("unexpected export schema, column %q: %s", e.Column, e.Reason)
}

type FailureReason string

const (
	ReasonRetriesExhausted FailureReason = "retries exhausted"
	ReasonUnknownException FailureReason = "unknown exception"
	ReasonUnexpectedStatus FailureReason = "unexpected status"
)

// FetchFailedError is returned when an export for one day could not be
// retrieved. Err holds the last transport error, if any.
type FetchFailedError struct {
	Endpoint string
	Day      time.Time
	Reason   FailureReason
	Attempts int
	Status   int
	Err      error
}

func (e *FetchFailedError) Error() string {
	msg := fmt.Sprintf("fetching %s for %s failed: %s after %d attempt(s)",
		e.Endpoint, e.Day.Format(time.DateOnly), e.Reason, e.Attempts)
	if e.Status != 0 {
		msg += fmt.Sprintf(", last status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchFailedError) Unwrap() error {
	return e.Err
}
