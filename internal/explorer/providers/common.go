package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/city-explorer/internal/explorer"
	"github.com/i474232898/city-explorer/internal/logger"
)

// maxBodyBytes caps how much of a provider reply is read.
const maxBodyBytes = 8 << 20

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by callers that have no opinion.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// ResilientFetcher executes provider requests with retries, exponential backoff and one
// circuit breaker per provider host.
type ResilientFetcher struct {
	cfg HTTPClientConfig
	log *zap.SugaredLogger

	mu       sync.Mutex
	circuits map[string]*gobreaker.CircuitBreaker
}

// NewResilientFetcher returns a fetcher using cfg. A nil client falls back to
// http.DefaultClient.
func NewResilientFetcher(cfg HTTPClientConfig) *ResilientFetcher {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &ResilientFetcher{
		cfg:      cfg,
		log:      logger.GetLogger("fetcher"),
		circuits: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (f *ResilientFetcher) circuit(host string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	cb, ok := f.circuits[host]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        host,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
			OnStateChange: func(name string, from, to gobreaker.State) {
				f.log.Warnf("circuit %s: %s -> %s", name, from, to)
			},
		})
		f.circuits[host] = cb
	}
	return cb
}

// Fetch runs req until it gets a 2xx reply, retries are exhausted, or ctx ends, and
// returns the reply body.
func (f *ResilientFetcher) Fetch(ctx context.Context, req *http.Request) ([]byte, error) {
	if f.cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if f.cfg.Backoff.MaxRetries < 0 || f.cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	cb := f.circuit(req.URL.Host)

	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Clone per attempt so every try obeys ctx.
		attemptReq := req.Clone(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := f.cfg.Client.Do(attemptReq)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			// Handle rate limiting and server errors explicitly.
			if resp.StatusCode == http.StatusTooManyRequests {
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}

			body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if readErr != nil {
				return nil, readErr
			}
			return body, nil
		})

		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return body, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		// Client errors will not improve on retry.
		if errors.Is(err, errUnexpected) {
			return nil, err
		}

		if attempt >= f.cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := f.cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > f.cfg.Backoff.MaxInterval && f.cfg.Backoff.MaxInterval > 0 {
			delay = f.cfg.Backoff.MaxInterval
		}
		f.log.Debugf("retrying %s in %s after: %v", req.URL.Host, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// decode unmarshals a provider reply, reporting syntax and type errors as malformed.
func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", explorer.ErrMalformedPayload, err)
	}
	return nil
}

// missing builds a malformed-payload error naming the absent field.
func missing(field string) error {
	return fmt.Errorf("%w: missing %s", explorer.ErrMalformedPayload, field)
}

// str dereferences an optional JSON string.
func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
