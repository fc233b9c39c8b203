// Package pota provides the client for the remote park dataset API.
package pota

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/pjbaur/pota-assistant/internal/errors"
	"github.com/pjbaur/pota-assistant/internal/logging"
)

// Package-level logger specific to the pota service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "pota.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "pota", serviceLevelVar)
	if err != nil {
		// Fallback: disabled handler that still respects the level var
		log.Printf("Failed to initialize pota file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "pota")
		closeLogger = func() error { return nil }
	}
}

// Client fetches park data from the remote dataset API. It never retries on
// its own; retry is a caller decision.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new park dataset API client.
func NewClient(config Config) *Client {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.HealthTimeout == 0 {
		config.HealthTimeout = defaults.HealthTimeout
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}

	logger.Info("Park dataset client initialized",
		"base_url", config.BaseURL,
		"timeout", config.Timeout)

	return client
}

// Close cleans up client resources.
func (c *Client) Close() {
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing pota logger: %v", err)
		}
	}
}

// FetchAllParks retrieves the full park list for a program prefix.
// Program "ALL" fetches every program the API serves.
func (c *Client) FetchAllParks(ctx context.Context, program string) ([]ParkRecord, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/program/parks/%s", c.config.BaseURL, program)

	var parks []ParkRecord
	if err := c.doRequest(reqCtx, url, &parks); err != nil {
		return nil, err
	}

	logger.Info("Fetched park dataset", "program", program, "count", len(parks))
	return parks, nil
}

// FetchPark retrieves a single park by reference. A remote 404 is not an
// error: it returns (nil, nil) so callers can treat it as a clean miss.
func (c *Client) FetchPark(ctx context.Context, reference string) (*ParkRecord, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/park/%s", c.config.BaseURL, reference)

	var park ParkRecord
	err := c.doRequest(reqCtx, url, &park)
	if err != nil {
		var ee *errors.EnhancedError
		if errors.As(err, &ee) && ee.StatusCode == http.StatusNotFound {
			logger.Debug("Park not found remotely", "reference", reference)
			return nil, nil
		}
		return nil, err
	}

	return &park, nil
}

// Ping performs a lightweight health check against the API root.
func (c *Client) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.config.BaseURL, http.NoBody)
	if err != nil {
		return requestError(err, c.config.BaseURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(reqCtx, err, c.config.BaseURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return statusError(resp.StatusCode, c.config.BaseURL)
	}
	return nil
}

// doRequest executes a GET request and decodes the JSON body into out.
func (c *Client) doRequest(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return requestError(err, url)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pota-assistant")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(ctx, err, url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(err).
			Component("pota").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.New(err).
			Component("pota").
			Category(errors.CategoryFileParsing).
			Context("url", url).
			Suggestion("the remote API may have changed its response format").
			Build()
	}

	return nil
}

func requestError(err error, url string) error {
	return errors.New(err).
		Component("pota").
		Category(errors.CategoryNetwork).
		Context("url", url).
		Build()
}

// transportError distinguishes a deadline from other transport failures so
// callers can report "timed out" separately from "connection failed".
func transportError(ctx context.Context, err error, url string) error {
	category := errors.CategoryNetwork
	suggestion := "check network connectivity and retry"
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		category = errors.CategoryTimeout
		suggestion = "the remote API is slow, retry later"
	}
	return errors.New(err).
		Component("pota").
		Category(category).
		Context("url", url).
		Suggestion(suggestion).
		Build()
}

func statusError(statusCode int, url string) error {
	return errors.Newf("received non-200 response: %d", statusCode).
		Component("pota").
		Category(errors.CategoryNetwork).
		StatusCode(statusCode).
		Context("url", url).
		Suggestion("retry later or run 'pota sync --force' once the API recovers").
		Build()
}
