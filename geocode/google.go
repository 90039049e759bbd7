// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/innatives/geocoding-app-v2/spatial"
	"github.com/innatives/geocoding-app-v2/utils/httputils"
)

const (
	defaultBaseURL = "https://maps.googleapis.com"
	defaultTimeout = 10 * time.Second

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// ClientOptions configuration for the Google Maps client.
type ClientOptions struct {
	// BaseURL overrides the API endpoint (tests point it at a local server)
	BaseURL string

	// Region biases results toward a ccTLD region, e.g. "uy"
	Region string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Timeout bounds each request. Defaults to 10 seconds
	Timeout time.Duration

	// TraceWriter, when set, dumps each HTTP transaction with the
	// credential redacted
	TraceWriter io.Writer

	// TraceBody includes response bodies in the trace
	TraceBody bool
}

// Client calls the Google Maps Geocoding API.
type Client struct {
	baseURL    string
	region     string
	httpClient *http.Client
}

// NewClient creates a Google Maps geocoding client.
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:       options.TraceWriter,
		DumpBody:     options.TraceBody,
		RedactParams: []string{"key"},
		Transport:    transport,
	}

	userAgent := "geocsv/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: loggingTransport,
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		region:  options.Region,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: headerTransport,
		},
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"` // OK, ZERO_RESULTS, etc.
}

// Resolve performs one geocoding request and classifies the answer. The
// first result wins when the service returns several candidates.
func (c *Client) Resolve(ctx context.Context, query, credential string) Outcome {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", credential)

	if c.region != "" {
		params.Set("region", c.region)
	}

	reqURL := c.baseURL + "/maps/api/geocode/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Failedf("building request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Failedf("geocoding request failed: %v", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Failedf("google maps returned status %d", resp.StatusCode)
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return Failedf("decoding response: %v", err)
	}

	switch {
	case gmResp.Status == statusOK && len(gmResp.Results) > 0:
		point := spatial.Point{
			Lat: gmResp.Results[0].Geometry.Location.Lat,
			Lng: gmResp.Results[0].Geometry.Location.Lng,
		}

		if err := point.Valid(); err != nil {
			return Failedf("invalid coordinates: %v", err)
		}

		return Resolved(point)
	case gmResp.Status == statusOK || gmResp.Status == statusZeroResults:
		return Unresolved()
	default:
		return Failedf("google maps status: %s", gmResp.Status)
	}
}
