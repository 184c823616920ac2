// Package client implements an HTTP client for the prime service with
// per-request deadlines and an injectable transport.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/sambhav26s/primes/pkg/transfer"
)

// The default maximum timeout that will be applied to requests.
const DefaultMaxTimeout = 10 * time.Second

// PrimeClient fetches primes from one or more prime service instances.
type PrimeClient struct {
	// The logr.Logger instance to use.
	logger logr.Logger
	// The underlying HTTP client; replaceable for TLS or test setups.
	httpClient *http.Client
	// The maximum timeout/deadline applied to each request.
	maxTimeout time.Duration
	// An optional User-Agent header value.
	userAgent string
}

// Defines a function signature for PrimeClient options.
type PrimeClientOption func(*PrimeClient)

// Use the supplied logger for the client.
func WithLogger(logger logr.Logger) PrimeClientOption {
	return func(c *PrimeClient) {
		c.logger = logger
	}
}

// Set the maximum timeout for requests made by the client.
func WithMaxTimeout(timeout time.Duration) PrimeClientOption {
	return func(c *PrimeClient) {
		if timeout > 0 {
			c.maxTimeout = timeout
		}
	}
}

// Use the supplied http.Client for requests; this is how TLS settings
// reach the transport.
func WithHTTPClient(httpClient *http.Client) PrimeClientOption {
	return func(c *PrimeClient) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// Set the User-Agent header sent with each request.
func WithUserAgent(userAgent string) PrimeClientOption {
	return func(c *PrimeClient) {
		c.userAgent = userAgent
	}
}

// Create a new PrimeClient with optional settings.
func NewPrimeClient(options ...PrimeClientOption) *PrimeClient {
	client := &PrimeClient{
		logger:     logr.Discard(),
		httpClient: &http.Client{},
		maxTimeout: DefaultMaxTimeout,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// FetchPrime requests the nth prime from the service at target, which
// is a base URL such as http://localhost:8080.
func (c *PrimeClient) FetchPrime(ctx context.Context, target string, n uint64) (uint64, error) {
	logger := c.logger.V(1).WithValues("target", target, "n", n)
	logger.Info("FetchPrime: enter")
	url := strings.TrimSuffix(target, "/") + "/api/v1/prime/" + strconv.FormatUint(n, 10)
	ctx, cancel := context.WithTimeout(ctx, c.maxTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("request to %s returned status %d", url, resp.StatusCode)
	}
	var body transfer.PrimeResponse
	if err := body.UnmarshalResponse(resp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal response from %s: %w", url, err)
	}
	logger.Info("FetchPrime: exit", "prime", body.Prime, "identity", body.Metadata.Identity)
	return body.Prime, nil
}
