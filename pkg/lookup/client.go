// Package lookup is the boundary client for the grounded-search
// collaborator. It returns raw candidate observations per field; all
// trust classification and decision logic happens downstream.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/garagedata/vehiclefacts/internal/model"
)

const defaultBaseURL = "https://api.groundedlookup.dev"

// Client fetches candidate observations for one vehicle field.
type Client interface {
	FetchCandidates(ctx context.Context, key model.VehicleKey, field string) ([]model.CandidateObservation, error)
}

// lookupRequest is the request body for POST /v1/lookup.
type lookupRequest struct {
	Vehicle model.VehicleKey `json:"vehicle"`
	Field   string           `json:"field"`
}

// lookupResponse is the response from POST /v1/lookup.
type lookupResponse struct {
	Candidates []model.CandidateObservation `json:"candidates"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a grounded lookup client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) FetchCandidates(ctx context.Context, key model.VehicleKey, field string) ([]model.CandidateObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "lookup: rate limit wait")
	}

	body, err := json.Marshal(lookupRequest{Vehicle: key, Field: field})
	if err != nil {
		return nil, eris.Wrap(err, "lookup: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/lookup", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "lookup: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "lookup: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "lookup: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("lookup: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result lookupResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "lookup: unmarshal response")
	}

	return result.Candidates, nil
}
