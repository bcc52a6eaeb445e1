// Package protocol holds the wire types exchanged with clients: the request
// body, the response envelopes, the error taxonomy and stream frames.
package protocol

import (
	"net/http"
	"strings"
	"time"
)

// Status is the envelope discriminator.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPending Status = "pending"
	StatusError   Status = "error"
)

// Message is an OpenAI-style chat message, accepted for compatibility with
// chat clients that send {"messages":[{"role":"user","content":"..."}]}.
type Message struct {
	Role    string `json:"role,omitempty" validate:"max=32"`
	Content string `json:"content" validate:"max=1024"`
}

// Request is the inbound request body.
type Request struct {
	Query    string    `json:"query,omitempty" validate:"max=1024"`
	Stream   *bool     `json:"stream,omitempty"`
	Messages []Message `json:"messages,omitempty" validate:"max=16,dive"`
}

// Text returns the free-text query: Query, or else the first message content.
func (r Request) Text() string {
	if strings.TrimSpace(r.Query) != "" || len(r.Messages) == 0 {
		return r.Query
	}
	return r.Messages[0].Content
}

// Streaming reports whether a stream session was requested. An absent
// stream flag means streaming.
func (r Request) Streaming() bool {
	return r.Stream == nil || *r.Stream
}

// Envelope is every response body of the dispatch endpoint.
type Envelope struct {
	Status Status `json:"status"`

	// ok
	Intent string `json:"intent,omitempty"`
	City   string `json:"city,omitempty"`
	Data   any    `json:"data,omitempty"`

	// pending
	SessionID  string     `json:"session_id,omitempty"`
	StreamPath string     `json:"stream_path,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`

	// error
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK builds a synchronous success envelope.
func OK(intent, city string, data any) Envelope {
	return Envelope{Status: StatusOK, Intent: intent, City: city, Data: data}
}

// Pending builds a streaming registration envelope.
func Pending(sessionID, streamPath string, expiresAt time.Time) Envelope {
	env := Envelope{Status: StatusPending, SessionID: sessionID, StreamPath: streamPath}
	if !expiresAt.IsZero() {
		env.ExpiresAt = &expiresAt
	}
	return env
}

// Failure builds an error envelope.
func Failure(e *Error) Envelope {
	return Envelope{Status: StatusError, Kind: e.Kind, Message: e.Message}
}

// HTTPStatus is the status code the envelope is written with.
func (e Envelope) HTTPStatus() int {
	if e.Status == StatusError {
		return e.Kind.HTTPStatus()
	}
	return http.StatusOK
}
