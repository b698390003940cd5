package realdebrid

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/italolelis/debrid_console/internal/logctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Real-Debrid REST API root.
const DefaultBaseURL = "https://api.real-debrid.com/rest/1.0"

// Config configures a Client. The zero value talks to DefaultBaseURL without
// a credential.
type Config struct {
	BaseURL string
	Token   string

	// HTTPClient is the transport used before the credential is injected.
	// Nil selects an otelhttp-instrumented default transport.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the Real-Debrid REST API. A Client is immutable: the
// credential is fixed at construction and WithToken derives a new Client.
type Client struct {
	baseURL string
	base    *http.Client
	logger  *slog.Logger
	token   string
	rest    *resty.Client
}

var _ debrid.Client = (*Client)(nil)

func NewClient(cfg Config) *Client {
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return newClient(baseURL, base, logger, cfg.Token)
}

func newClient(baseURL string, base *http.Client, logger *slog.Logger, token string) *Client {
	token = strings.TrimSpace(token)
	httpClient := base

	// Without a token the request goes out with no Authorization header at
	// all; the remote service then answers with its own authorization error.
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(ctx, tokenSource)
	}

	rest := resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetLogger(&restyLogger{logger: logger})

	return &Client{
		baseURL: baseURL,
		base:    base,
		logger:  logger,
		token:   token,
		rest:    rest,
	}
}

// WithToken returns a Client sharing this client's base URL and transport with
// the credential replaced.
func (c *Client) WithToken(token string) *Client {
	return newClient(c.baseURL, c.base, c.logger, token)
}

// HasCredential reports whether requests carry an Authorization header.
func (c *Client) HasCredential() bool {
	return c.token != ""
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// listPath appends pagination to path. The query is written by hand because
// resty sorts query parameters and the remote expects offset before limit.
func listPath(path string, opts debrid.ListOptions) string {
	opts = opts.Normalize()

	return path + "?offset=" + strconv.Itoa(opts.Offset) + "&limit=" + strconv.Itoa(opts.Limit)
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx)
}

// do executes req and decodes a JSON answer into out when out is non-nil.
// 204 No Content and empty bodies leave out untouched.
func (c *Client) do(ctx context.Context, req *resty.Request, method, path, operation string, out any) error {
	logger := logctx.LoggerFromContext(ctx).With("operation", operation, "method", method)

	resp, err := req.Execute(method, path)
	if err != nil {
		logger.ErrorContext(ctx, "debrid api request failed", "err", err)

		return &debrid.NetworkError{Operation: operation, Err: err}
	}

	if err := mapHTTPError(operation, resp); err != nil {
		logger.WarnContext(ctx, "debrid api returned an error", "status", resp.StatusCode(), "err", err)

		return err
	}

	logger.DebugContext(ctx, "debrid api request completed", "status", resp.StatusCode(), "duration", resp.Time())

	if out == nil || resp.StatusCode() == http.StatusNoContent || len(resp.Body()) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		logger.ErrorContext(ctx, "failed to decode debrid api response", "err", err)

		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}

	return nil
}

type errorBody struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

// mapHTTPError turns a non-2xx answer into an *debrid.APIError, wrapped in an
// *debrid.AuthenticationError for 401 and 403. Bodies that are not the
// service's JSON error object leave the remote message empty.
func mapHTTPError(operation string, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	apiErr := &debrid.APIError{
		Operation:  operation,
		StatusCode: resp.StatusCode(),
	}

	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Message = body.Error
		apiErr.Code = body.ErrorCode
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &debrid.AuthenticationError{Operation: operation, Err: apiErr}
	default:
		return apiErr
	}
}

// restyLogger routes resty's internal warnings into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l *restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (l *restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (l *restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
