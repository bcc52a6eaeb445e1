package protocol

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/i474232898/mcp-weather-server/internal/query"
	"github.com/i474232898/mcp-weather-server/internal/session"
	"github.com/i474232898/mcp-weather-server/internal/weather"
)

// Kind is the client-facing error taxonomy.
type Kind string

const (
	KindBadRequest             Kind = "BadRequest"
	KindCityNotFound           Kind = "CityNotFound"
	KindUpstreamTimeout        Kind = "UpstreamTimeout"
	KindUpstreamUnreachable    Kind = "UpstreamUnreachable"
	KindUpstreamProviderError  Kind = "UpstreamProviderError"
	KindSessionNotFound        Kind = "SessionNotFound"
	KindSessionExpired         Kind = "SessionExpired"
	KindSessionAlreadyConsumed Kind = "SessionAlreadyConsumed"
	KindInternalError          Kind = "InternalError"
)

// HTTPStatus is the status code used when the error is the whole response.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindCityNotFound, KindSessionNotFound:
		return http.StatusNotFound
	case KindSessionExpired:
		return http.StatusGone
	case KindSessionAlreadyConsumed:
		return http.StatusConflict
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamUnreachable, KindUpstreamProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure already mapped to the taxonomy.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a mapped error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// BadRequest is shorthand for NewError(KindBadRequest, message).
func BadRequest(message string) *Error {
	return NewError(KindBadRequest, message)
}

const internalMessage = "internal error"

// FromError maps any error to exactly one taxonomy kind. Unknown errors become
// KindInternalError with a generic message.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var mapped *Error
	if errors.As(err, &mapped) {
		return mapped
	}

	switch {
	case errors.Is(err, query.ErrEmptyCity):
		return BadRequest("city not resolved from query")
	case errors.Is(err, session.ErrNotFound):
		return NewError(KindSessionNotFound, "session not found")
	case errors.Is(err, session.ErrExpired):
		return NewError(KindSessionExpired, "session expired")
	case errors.Is(err, session.ErrAlreadyConsumed):
		return NewError(KindSessionAlreadyConsumed, "session already consumed")
	}

	var ue *weather.UpstreamError
	if errors.As(err, &ue) {
		switch ue.Kind {
		case weather.UpstreamCityNotFound:
			return NewError(KindCityNotFound, fmt.Sprintf("city %q not found", ue.City))
		case weather.UpstreamTimeout:
			return NewError(KindUpstreamTimeout, "weather provider timed out")
		case weather.UpstreamUnreachable:
			return NewError(KindUpstreamUnreachable, "weather provider unreachable")
		case weather.UpstreamProviderError:
			return NewError(KindUpstreamProviderError, fmt.Sprintf("weather provider returned status %d", ue.Status))
		}
	}

	return NewError(KindInternalError, internalMessage)
}
