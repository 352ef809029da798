// Package peerclient implements the Resilient Peer Client (§4.3): an
// HTTP client to the Customer service composing retry, a circuit breaker,
// and an absolute time limiter, in that order, backed by a bounded TTL
// cache for exists(). No teacher equivalent exists in bank-api (a
// single-service app never calls a sibling service); the composition shape
// is grounded on internal/platform/resilience, itself grounded on
// r3e-network-service_layer's resilience.go.
package peerclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
	"github.com/fandangolas/core-banking-platform/internal/platform/cache"
	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
	"github.com/fandangolas/core-banking-platform/internal/platform/resilience"
	"github.com/fandangolas/core-banking-platform/internal/platform/tracing"
)

type Client struct {
	baseURL     string
	httpClient  *http.Client
	breaker     *resilience.CircuitBreaker
	retryCfg    resilience.RetryConfig
	timeLimit   time.Duration
	cache       cache.Cache
	cacheTTL    time.Duration
	log         *logging.Logger
}

func New(baseURL string, breakerCfg resilience.Config, retryCfg resilience.RetryConfig, timeLimit time.Duration, c cache.Cache, cacheTTL time.Duration, log *logging.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		breaker:    resilience.New(breakerCfg),
		retryCfg:   retryCfg,
		timeLimit:  timeLimit,
		cache:      c,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

type customerDTO struct {
	CustomerID         string `json:"customerId"`
	DisplayName        string `json:"displayName"`
	NationalIdentifier string `json:"nationalIdentifier"`
	Active             bool   `json:"active"`
}

// ValidateCustomer calls GET /api/v1/customers/{id}/validate. Business
// outcomes (404/400) are classified once at the transport boundary and
// never retried; transport/timeout failures and an open breaker both
// surface as SERVICE_UNAVAILABLE.
func (c *Client) ValidateCustomer(ctx context.Context, customerID string) (service.CustomerRef, error) {
	dto, err := c.call(ctx, "GET", "/api/v1/customers/"+customerID+"/validate", nil)
	if err != nil {
		return service.CustomerRef{}, err
	}
	return service.CustomerRef{CustomerID: dto.CustomerID, DisplayName: dto.DisplayName, Active: dto.Active}, nil
}

// Exists memoizes the validate() outcome behind a bounded TTL cache: true
// for an active customer, false for a missing or inactive one. Other
// failures are returned and not cached. Entries are invalidated by the
// events consumer on every customer.* event.
func (c *Client) Exists(ctx context.Context, customerID string) (bool, error) {
	if cached, ok := c.cache.Get(ctx, customerID); ok {
		return cached, nil
	}

	_, err := c.ValidateCustomer(ctx, customerID)
	if err != nil {
		var apiErr *apierror.Error
		if asAPIError(err, &apiErr) && (apiErr.Kind == apierror.KindCustomerNotFound || apiErr.Kind == apierror.KindCustomerNotActive) {
			_ = c.cache.Set(ctx, customerID, false, c.cacheTTL)
			return false, nil
		}
		return false, err
	}

	_ = c.cache.Set(ctx, customerID, true, c.cacheTTL)
	return true, nil
}

// InvalidateCache is called by the events consumer whenever a customer.*
// event arrives, so the cache can never serve a stale existence result.
func (c *Client) InvalidateCache(ctx context.Context, customerID string) {
	_ = c.cache.Invalidate(ctx, customerID)
}

func (c *Client) call(ctx context.Context, method, path string, body []byte) (*customerDTO, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeLimit)
	defer cancel()

	var result *customerDTO
	var businessErr error

	breakerErr := c.breaker.Execute(ctx, func() error {
		return resilience.Retry(ctx, c.retryCfg, func() error {
			dto, err := c.doRequest(ctx, method, path, body)
			if err != nil {
				var apiErr *apierror.Error
				if asAPIError(err, &apiErr) {
					// Business outcomes are final: stop retrying, let the
					// breaker see a success (this wasn't an infra failure).
					businessErr = err
					return nil
				}
				return err
			}
			result = dto
			return nil
		})
	})

	if businessErr != nil {
		return nil, businessErr
	}
	if breakerErr != nil {
		if breakerErr == resilience.ErrCircuitOpen || breakerErr == resilience.ErrTooManyRequests {
			return nil, apierror.ServiceUnavailable("customer service circuit breaker is open")
		}
		c.log.Warn("customer service call failed after retries", logging.Fields{"path": path, "error": breakerErr.Error()})
		return nil, apierror.ServiceUnavailable("customer service is unavailable")
	}
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (*customerDTO, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-Request-Id", tracing.RequestIDFromContext(ctx))
	req.Header.Set("X-Correlation-Id", tracing.CorrelationIDFromContext(ctx))
	if token, ok := tracing.BearerTokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		c.log.Warn("no bearer token on outbound customer service call", logging.Fields{"path": path})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("customer service request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read customer service response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var dto customerDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			return nil, fmt.Errorf("decode customer service response: %w", err)
		}
		return &dto, nil
	case http.StatusNotFound:
		return nil, apierror.CustomerNotFound("")
	case http.StatusBadRequest:
		return nil, apierror.CustomerNotActive()
	default:
		return nil, fmt.Errorf("customer service returned unexpected status %d", resp.StatusCode)
	}
}

func asAPIError(err error, target **apierror.Error) bool {
	apiErr, ok := err.(*apierror.Error)
	if !ok {
		return false
	}
	*target = apiErr
	return true
}
