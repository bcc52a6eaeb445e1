package weather

import (
	"context"
)

// Client abstracts the upstream weather source. Implementations perform exactly
// one outbound call per invocation and never cache or retry.
type Client interface {
	FetchCurrent(ctx context.Context, city string) (CurrentSnapshot, error)
	FetchForecast(ctx context.Context, city string) (Forecast, error)
}
