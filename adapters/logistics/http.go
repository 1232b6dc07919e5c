package logistics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"opticost/core/types"
	"opticost/internal/errors"
)

// APIKeyHeader carries the key on every lookup
const APIKeyHeader = "X-Api-Key"

// HTTPConfig configures the HTTP provider
type HTTPConfig struct {
	// Endpoint receives the lookup as a JSON POST
	Endpoint string `json:"endpoint"`

	// Timeout for one attempt
	Timeout time.Duration `json:"timeout"`

	// RetryCount for overloaded responses
	RetryCount int `json:"retry_count"`

	// RetryDelay between retries
	RetryDelay time.Duration `json:"retry_delay"`
}

// DefaultHTTPConfig returns sensible defaults
func DefaultHTTPConfig(endpoint string) *HTTPConfig {
	return &HTTPConfig{
		Endpoint:   endpoint,
		Timeout:    30 * time.Second,
		RetryCount: 2,
		RetryDelay: time.Second,
	}
}

// HTTPProvider looks up logistics from a JSON web service
type HTTPProvider struct {
	config     *HTTPConfig
	httpClient *http.Client
}

// NewHTTPProvider creates a provider for the configured endpoint
func NewHTTPProvider(config *HTTPConfig) *HTTPProvider {
	return &HTTPProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Lookup implements Provider. Only overloaded answers are retried.
func (p *HTTPProvider) Lookup(ctx context.Context, req Request) (types.LogisticsData, error) {
	if req.APIKey == "" {
		return types.UnfetchedLogistics(), errors.New(errors.TypeInvalidKey, "logistics API key is not set")
	}

	var lastErr error
	for attempt := 0; attempt <= p.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return types.UnfetchedLogistics(), errors.Wrap(errors.TypeNetwork, "logistics lookup cancelled", ctx.Err())
			case <-time.After(p.config.RetryDelay):
			}
		}

		data, err := p.lookupOnce(ctx, req)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !errors.IsType(err, errors.TypeOverloaded) {
			break
		}
	}
	return types.UnfetchedLogistics(), lastErr
}

func (p *HTTPProvider) lookupOnce(ctx context.Context, req Request) (types.LogisticsData, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.LogisticsData{}, errors.Internal("failed to encode logistics request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return types.LogisticsData{}, errors.Config("invalid logistics endpoint", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(APIKeyHeader, req.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return types.LogisticsData{}, errors.Wrap(errors.TypeNetwork, "logistics request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.LogisticsData{}, statusError(resp.StatusCode, string(bytes.TrimSpace(snippet)))
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return types.LogisticsData{}, errors.Parsing("invalid logistics response", err)
	}
	return rec.Normalize(), nil
}

// statusError maps an HTTP status to a failure category
func statusError(status int, body string) error {
	msg := fmt.Sprintf("logistics provider returned %d", status)
	if body != "" {
		msg += ": " + body
	}

	var t errors.Type
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		t = errors.TypeInvalidKey
	case http.StatusTooManyRequests:
		t = errors.TypeQuotaExhausted
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, 529:
		t = errors.TypeOverloaded
	default:
		t = errors.TypeNetwork
	}
	return errors.New(t, msg).WithContext("status", status)
}
