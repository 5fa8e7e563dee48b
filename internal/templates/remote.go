package templates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/health-advisor-server/internal/domain"
)

// RawCache stores fetched library documents across processes
type RawCache interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Set(ctx context.Context, url string, data []byte) error
}

// RemoteSource fetches library documents over HTTP. Requests are not retried;
// repeated failures open the breaker so later loads fail fast.
type RemoteSource struct {
	logger  *logrus.Logger
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	cache   RawCache
}

// NewRemoteSource creates a remote fetcher. cache may be nil.
func NewRemoteSource(logger *logrus.Logger, cfg domain.LibraryConfig, cache RawCache) *RemoteSource {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json, application/yaml, text/yaml")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TemplateLibrary",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker changed state")
		},
	})

	return &RemoteSource{
		logger:  logger,
		client:  client,
		breaker: breaker,
		cache:   cache,
	}
}

// Fetch returns the document body at url, consulting the shared cache first
func (r *RemoteSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	if r.cache != nil {
		data, found, err := r.cache.Get(ctx, url)
		if err != nil {
			r.logger.WithError(err).Warn("Library cache lookup failed, fetching directly")
		} else if found {
			return data, nil
		}
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		resp, err := r.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, fmt.Errorf("requesting %s: %w", url, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("requesting %s: unexpected status %d", url, resp.StatusCode())
		}
		return resp.Body(), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.logger.WithField("url", url).Warn("Library fetch rejected by open circuit breaker")
		}
		return nil, err
	}

	data := result.([]byte)
	if r.cache != nil {
		if err := r.cache.Set(ctx, url, data); err != nil {
			r.logger.WithError(err).Warn("Failed to store library in cache")
		}
	}
	return data, nil
}

// State reports the breaker state, mainly for health output
func (r *RemoteSource) State() gobreaker.State {
	return r.breaker.State()
}
