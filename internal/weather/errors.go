package weather

import (
	"fmt"
)

// UpstreamErrorKind classifies a failed upstream call.
type UpstreamErrorKind int

const (
	UpstreamProviderError UpstreamErrorKind = iota
	UpstreamTimeout
	UpstreamCityNotFound
	UpstreamUnreachable
)

func (k UpstreamErrorKind) String() string {
	switch k {
	case UpstreamTimeout:
		return "timeout"
	case UpstreamCityNotFound:
		return "city not found"
	case UpstreamUnreachable:
		return "unreachable"
	default:
		return "provider error"
	}
}

// UpstreamError is returned by Client implementations for every failure that
// originates at (or on the way to) the weather provider.
type UpstreamError struct {
	Kind UpstreamErrorKind
	City string

	// Status and Body are set for UpstreamProviderError.
	Status int
	Body   string

	Err error
}

func (e *UpstreamError) Error() string {
	switch e.Kind {
	case UpstreamCityNotFound:
		return fmt.Sprintf("city %q not found", e.City)
	case UpstreamProviderError:
		return fmt.Sprintf("weather provider returned status %d", e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("weather provider %s: %v", e.Kind, e.Err)
		}
		return "weather provider " + e.Kind.String()
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
