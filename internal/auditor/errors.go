// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auditor

import (
	"context"
	"errors"
	"strings"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// ErrorKind classifies audit failures so callers can pick a recovery path.
type ErrorKind int

const (
	// KindTransportFailure covers network, provider and cancellation errors.
	KindTransportFailure ErrorKind = iota

	// KindCredentialMissing means no key is available or the key was rejected.
	KindCredentialMissing

	// KindEmptyResponse means the provider returned no text.
	KindEmptyResponse

	// KindMalformedResponse means the text was not a valid audit document.
	KindMalformedResponse
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindCredentialMissing:
		return "CredentialMissing"
	case KindEmptyResponse:
		return "EmptyResponse"
	case KindMalformedResponse:
		return "MalformedResponse"
	default:
		return "TransportFailure"
	}
}

// User-facing messages per kind.
const (
	MsgCredentialMissing = "API configuration error. Please re-select your API key."
	MsgEmptyResponse     = "The model did not return any logical analysis."
	MsgMalformedResponse = "The model returned an analysis that does not match the audit structure."
	MsgTransportFailure  = "The auditor failed to process the logic. Check your network or API key."
)

// =============================================================================
// ERROR TYPE
// =============================================================================

// Error is returned by AuditStatement for every failure.
type Error struct {
	// Kind selects the recovery path.
	Kind ErrorKind

	// Message is safe to show to the user.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrCredentialMissing = &Error{Kind: KindCredentialMissing, Message: MsgCredentialMissing}
	ErrEmptyResponse     = &Error{Kind: KindEmptyResponse, Message: MsgEmptyResponse}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse, Message: MsgMalformedResponse}
	ErrTransportFailure  = &Error{Kind: KindTransportFailure, Message: MsgTransportFailure}
)

// ErrCredentialRejected is wrapped by generators when the provider refuses
// the key. The service maps it to KindCredentialMissing.
var ErrCredentialRejected = errors.New("credential rejected by provider")

// KindOf returns the kind of err, or KindTransportFailure for foreign errors.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindTransportFailure
}

// UserMessage returns the message to display for err.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if err == nil {
		return ""
	}
	return MsgTransportFailure
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// credentialMarkers are provider message fragments that indicate a bad or
// unknown key rather than a network problem.
var credentialMarkers = []string{
	"Requested entity was not found",
	"API key",
}

// classify maps a generator error into an *Error.
func classify(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, ErrCredentialRejected) {
		return &Error{Kind: KindCredentialMissing, Message: MsgCredentialMissing, Err: err}
	}

	// Cancellation is never a credential problem, whatever the message says.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransportFailure, Message: MsgTransportFailure, Err: err}
	}

	msg := err.Error()
	for _, marker := range credentialMarkers {
		if strings.Contains(msg, marker) {
			return &Error{Kind: KindCredentialMissing, Message: MsgCredentialMissing, Err: err}
		}
	}

	return &Error{Kind: KindTransportFailure, Message: MsgTransportFailure, Err: err}
}
