package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Kind classifies a failed backend call
type Kind int

const (
	// KindTransport means the request never reached the server or no response came back
	KindTransport Kind = iota + 1
	// KindNoSession means a privileged call had no token and the policy rejects it
	KindNoSession
	KindUnauthorized
	KindForbidden
	KindNotFound
	// KindRejected is a business-rule or precondition rejection (400, 409, 422)
	KindRejected
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindNoSession:
		return "no_session"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindRejected:
		return "rejected"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Error is returned for every failed backend call
type Error struct {
	Kind    Kind
	Status  int
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Domain errors surfaced with their own message
var (
	ErrTicketNotFound = errors.New("no ticket matches this ticket ID and email")
)

// KindOf returns the kind of a backend error, or 0 for other errors
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// IsNotFound reports whether err is a backend 404
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsRejected reports whether err is a backend business-rule rejection
func IsRejected(err error) bool { return KindOf(err) == KindRejected }

// kindForStatus maps an HTTP status to an error kind
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindRejected
	}
}

// messageFromBody extracts a human readable message from an error response body
func messageFromBody(body []byte) string {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		case payload.Detail != "":
			return payload.Detail
		}
		return ""
	}

	return truncate(string(body), maxMessageRunes)
}

const maxMessageRunes = 200

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// UserMessage turns an error into the banner text shown for resource
// (e.g. "stations"). Transport and server failures get the generic message.
func UserMessage(err error, resource string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrTicketNotFound) {
		return "No ticket was found for this ticket ID and email."
	}

	var be *Error
	if !errors.As(err, &be) {
		return fmt.Sprintf("Failed to load %s. Please try again later.", resource)
	}

	switch be.Kind {
	case KindNoSession, KindUnauthorized:
		return "Your session has expired. Please sign in again."
	case KindForbidden:
		return "You are not allowed to perform this action."
	case KindNotFound:
		if be.Message != "" {
			return be.Message
		}
		return fmt.Sprintf("The requested %s could not be found.", resource)
	case KindRejected:
		if be.Message != "" {
			return be.Message
		}
		return fmt.Sprintf("The %s request was rejected.", resource)
	default:
		return fmt.Sprintf("Failed to load %s. Please try again later.", resource)
	}
}
