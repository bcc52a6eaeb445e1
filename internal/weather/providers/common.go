package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/mcp-weather-server/internal/weather"
)

const (
	// maxBodyBytes bounds how much of a provider response is read into memory.
	maxBodyBytes = 1 << 20
	// bodyExcerptBytes bounds the body excerpt carried by provider errors.
	bodyExcerptBytes = 256
)

// HTTPClientConfig bundles the HTTP client and the per-call deadline.
type HTTPClientConfig struct {
	Client  *http.Client
	Timeout time.Duration
}

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// newCircuitBreaker builds the breaker shared by all calls of one provider.
// threshold consecutive failures open it; threshold <= 0 never trips.
func newCircuitBreaker(name string, threshold int) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= uint32(threshold)
		},
		IsSuccessful: countsAsHealthy,
	})
}

// countsAsHealthy reports whether err says nothing about provider health.
// A missing city or a 4xx is the caller's problem, not an outage.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var ue *weather.UpstreamError
	if !errors.As(err, &ue) {
		return true
	}
	switch ue.Kind {
	case weather.UpstreamCityNotFound:
		return true
	case weather.UpstreamProviderError:
		return ue.Status < http.StatusInternalServerError
	default:
		return false
	}
}

// doRequest executes one request through the circuit breaker and returns the
// response body of a 2xx reply. It never retries. Every failure is an
// *weather.UpstreamError except for configuration errors.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	city string,
	buildRequest func() (*http.Request, error),
) ([]byte, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}

	// Ensure the request obeys the call deadline.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, transportError(city, execErr)
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, transportError(city, readErr)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, &weather.UpstreamError{Kind: weather.UpstreamCityNotFound, City: city}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &weather.UpstreamError{
				Kind:   weather.UpstreamProviderError,
				City:   city,
				Status: resp.StatusCode,
				Body:   excerpt(body),
			}
		}

		return body, nil
	})
	if err != nil {
		// If circuit is open, fail fast without touching the network.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.UpstreamError{
				Kind: weather.UpstreamUnreachable,
				City: city,
				Err:  fmt.Errorf("%w: %v", errCircuitOpen, err),
			}
		}
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

// transportError classifies a failure that happened before a complete
// response was received.
func transportError(city string, err error) error {
	kind := weather.UpstreamUnreachable

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = weather.UpstreamTimeout
	}

	return &weather.UpstreamError{Kind: kind, City: city, Err: err}
}

func excerpt(body []byte) string {
	if len(body) > bodyExcerptBytes {
		body = body[:bodyExcerptBytes]
	}
	return string(body)
}
