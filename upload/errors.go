package upload

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind buckets a failure into the categories the UI distinguishes
type Kind int

const (
	KindNotAuthenticated Kind = iota + 1
	KindInvalidTenantType
	KindInvalidImage
	KindTimeout
	KindUnauthorized
	KindPayloadTooLarge
	KindUnsupportedMediaType
	KindNetwork
	KindServerRejected
	KindStorage
	KindCanceled
)

var kindNames = map[Kind]string{
	KindNotAuthenticated:     "not_authenticated",
	KindInvalidTenantType:    "invalid_tenant_type",
	KindInvalidImage:         "invalid_image",
	KindTimeout:              "timeout",
	KindUnauthorized:         "unauthorized",
	KindPayloadTooLarge:      "payload_too_large",
	KindUnsupportedMediaType: "unsupported_media_type",
	KindNetwork:              "network_error",
	KindServerRejected:       "server_rejected",
	KindStorage:              "storage",
	KindCanceled:             "canceled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// User facing messages, one per bucket
const (
	MsgNotAuthenticated     = "You are not logged in. Please log in and try again."
	MsgTimeout              = "The upload timed out. Please check your connection and try again."
	MsgUnauthorized         = "Session expired, please log in again."
	MsgPayloadTooLarge      = "The image is too large. Please choose a smaller picture."
	MsgUnsupportedMediaType = "This image format is not supported. Please choose a JPEG or PNG picture."
	MsgNetwork              = "Network error. Please check your internet connection and try again."
	MsgServerRejected       = "Failed to update profile picture. Please try again."
	MsgInvalidImage         = "The selected image could not be read."
	MsgStorage              = "Your profile picture was updated but could not be saved on this device."
	MsgSessionUnavailable   = "Your session could not be read on this device. Please try again."
	MsgCanceled             = "The request was cancelled."
)

// Error is the only error type returned by Service and Controller operations.
// Message is finished text that can be shown to the user as is.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // HTTP status of the last attempt, 0 when no response was received
	Attempts   int // network attempts made
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 if err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// attemptError records why a single network round trip failed
type attemptError struct {
	statusCode    int
	serverMessage string
	err           error
}

func (a *attemptError) Error() string {
	switch {
	case a.err != nil:
		return a.err.Error()
	case a.serverMessage != "":
		return a.serverMessage
	case a.statusCode != 0:
		return fmt.Sprintf("request failed with status %d", a.statusCode)
	}
	return "request was not successful"
}

func (a *attemptError) Unwrap() error {
	return a.err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func kindFor(a *attemptError) Kind {
	if a.err != nil {
		if isTimeout(a.err) {
			return KindTimeout
		}
		return KindNetwork
	}
	switch a.statusCode {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	case http.StatusUnsupportedMediaType:
		return KindUnsupportedMediaType
	}
	return KindServerRejected
}

// classify turns the last failed upload attempt into a user facing Error
func classify(a *attemptError, attempts int) *Error {
	kind := kindFor(a)
	msg := map[Kind]string{
		KindTimeout:              MsgTimeout,
		KindNetwork:              MsgNetwork,
		KindUnauthorized:         MsgUnauthorized,
		KindPayloadTooLarge:      MsgPayloadTooLarge,
		KindUnsupportedMediaType: MsgUnsupportedMediaType,
	}[kind]
	if kind == KindServerRejected {
		msg = MsgServerRejected
		if a.serverMessage != "" {
			msg = a.serverMessage
		}
	}
	return &Error{Kind: kind, Message: msg, StatusCode: a.statusCode, Attempts: attempts, Err: a}
}

// raw keeps the underlying message, used where no retry classification applies
func raw(a *attemptError) *Error {
	return &Error{Kind: kindFor(a), Message: a.Error(), StatusCode: a.statusCode, Attempts: 1, Err: a}
}

func fatal(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
