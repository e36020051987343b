package calcom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/teemow/calbooker/internal/instrumentation"
	"github.com/teemow/calbooker/internal/logging"
)

const (
	// DefaultBaseURL is the Cal.com v2 API root.
	DefaultBaseURL = "https://api.cal.com/v2/"

	// DefaultAPIVersion is sent when an endpoint does not pin its own version.
	DefaultAPIVersion = "2024-06-14"

	// SlotsAPIVersion is required by the slots endpoint.
	SlotsAPIVersion = "2024-09-04"

	// BookingsAPIVersion is required by the bookings endpoints.
	BookingsAPIVersion = "2024-08-13"

	// DefaultRequestInterval is the minimum gap between two requests.
	DefaultRequestInterval = 100 * time.Millisecond

	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 30 * time.Second

	headerAPIVersion = "cal-api-version"
	maxBodyBytes     = 10 << 20
)

// ErrInvalidAPIKey is returned by Validate when Cal.com rejects the API key.
var ErrInvalidAPIKey = errors.New("the Cal.com API key provided is not valid")

// Config configures a Client.
type Config struct {
	// APIKey is sent verbatim in the Authorization header (required)
	APIKey string

	// BaseURL overrides DefaultBaseURL
	BaseURL string

	// Username is the Cal.com user whose event types are listed
	Username string

	// HTTPClient overrides the default client with DefaultTimeout
	HTTPClient *http.Client

	// RequestInterval overrides DefaultRequestInterval. Negative disables spacing.
	RequestInterval time.Duration

	// CatalogRetry overrides DefaultCatalogRetry for ListEventTypes
	CatalogRetry *RetryPolicy

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client is a Cal.com v2 API client. It is safe for concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	username     string
	httpClient   *http.Client
	limiter      *rate.Limiter
	catalogRetry RetryPolicy
	metrics      *instrumentation.Metrics
	logger       *slog.Logger
}

// NewClient creates a new Cal.com client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("please provide a Cal.com API key")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	interval := cfg.RequestInterval
	if interval == 0 {
		interval = DefaultRequestInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	retryPolicy := DefaultCatalogRetry()
	if cfg.CatalogRetry != nil {
		retryPolicy = *cfg.CatalogRetry
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		username:     cfg.Username,
		httpClient:   httpClient,
		limiter:      rate.NewLimiter(limit, 1),
		catalogRetry: retryPolicy,
		metrics:      cfg.Metrics,
		logger:       logging.WithComponent(logger, "calcom"),
	}, nil
}

// Get issues a GET request against action (e.g., "event-types").
// An empty apiVersion selects DefaultAPIVersion.
func (c *Client) Get(ctx context.Context, op, action string, params url.Values, apiVersion string) Result {
	return c.do(ctx, op, http.MethodGet, action, params, nil, apiVersion)
}

// Post issues a POST request with a JSON payload.
func (c *Client) Post(ctx context.Context, op, action string, payload any, apiVersion string) Result {
	return c.do(ctx, op, http.MethodPost, action, nil, payload, apiVersion)
}

func (c *Client) do(ctx context.Context, op, method, action string, params url.Values, payload any, apiVersion string) Result {
	start := time.Now()

	endpoint := c.baseURL + strings.TrimPrefix(action, "/")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	ctx, span := instrumentation.StartProviderSpan(ctx, instrumentation.ServiceCalcom, op)
	defer span.End()

	result := c.roundTrip(ctx, op, method, endpoint, payload, apiVersion)

	status := instrumentation.StatusSuccess
	if result.IsError() {
		status = instrumentation.StatusError
		instrumentation.SetSpanErrorMessage(span, result.ErrorMessage())
		c.logger.Error("request failed",
			logging.Operation(op),
			slog.String("method", method),
			slog.String("message", result.ErrorMessage()))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordProviderOperation(ctx, instrumentation.ServiceCalcom, op, status, time.Since(start))

	return result
}

func (c *Client) roundTrip(ctx context.Context, op, method, endpoint string, payload any, apiVersion string) Result {
	fail := func(statusCode int, message string, err error) Result {
		return failure(&RequestError{Op: op, URL: endpoint, StatusCode: statusCode, Message: message, Err: err})
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(0, err.Error(), err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fail(0, fmt.Sprintf("failed to encode request: %v", err), err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fail(0, err.Error(), err)
	}

	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIVersion, apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, err.Error(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, fmt.Sprintf("failed to read response: %v", err), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(resp.StatusCode, fmt.Sprintf("%s for url: %s", resp.Status, endpoint), nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fail(resp.StatusCode, fmt.Sprintf("invalid JSON response for url: %s", endpoint), err)
	}

	result := Result{Body: raw, Data: fields["data"]}
	if s, ok := fields["status"]; ok {
		_ = json.Unmarshal(s, &result.Status)
	}
	return result
}
