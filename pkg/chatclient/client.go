package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// Config is resolved once at startup and handed to New.
type Config struct {
	BaseURL string
	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration
	// UserID and PrivacyMode are forwarded to the backend only when set.
	UserID      string
	PrivacyMode bool
}

// Client performs the request/response exchange with the chat backend.
type Client struct {
	baseURL     string
	userID      string
	privacyMode bool
	httpClient  *http.Client
	logger      zerolog.Logger
}

// Option configures a Client in New.
type Option func(*Client) error

// WithHTTPClient replaces the default http.Client. Config.Timeout is not
// applied to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client is nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// New validates cfg and creates a client. An empty base URL falls back to
// DefaultBaseURL; a trailing slash is dropped.
func New(cfg Config, options ...Option) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base url %q", base)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("invalid base url %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return nil, errors.Errorf("invalid base url %q: missing host", base)
	}

	c := &Client{
		baseURL:     strings.TrimRight(base, "/"),
		userID:      strings.TrimSpace(cfg.UserID),
		privacyMode: cfg.PrivacyMode,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      log.Logger.With().Str("component", "chatclient").Logger(),
	}
	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, errors.Wrap(err, "failed to apply client option")
		}
	}
	return c, nil
}

// BaseURL returns the normalized base URL requests are built from.
func (c *Client) BaseURL() string { return c.baseURL }

type chatRequest struct {
	Message     string `json:"message"`
	UserID      string `json:"user_id,omitempty"`
	PrivacyMode bool   `json:"privacy_mode,omitempty"`
}

// Reply is the decoded backend answer. Response is returned exactly as sent.
type Reply struct {
	Response    string `json:"response" yaml:"response"`
	Timestamp   string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	PrivacyMode bool   `json:"privacy_mode,omitempty" yaml:"privacy_mode,omitempty"`
	StatusCode  int    `json:"-" yaml:"-"`
}

type replyBody struct {
	Response    *string `json:"response"`
	Timestamp   string  `json:"timestamp"`
	Status      string  `json:"status"`
	Source      string  `json:"source"`
	PrivacyMode bool    `json:"privacy_mode"`
	Error       string  `json:"error"`
}

// SendMessage posts text to <base>/chat and returns the reply.
//
// Every failure is a *RequestFailure. The HTTP status code does not decide
// success: any body carrying a string "response" field is a reply.
func (c *Client) SendMessage(ctx context.Context, text string) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	endpoint := c.baseURL + "/chat"
	fail := func(status int, cause error) error {
		return &RequestFailure{Method: http.MethodPost, URL: endpoint, StatusCode: status, Cause: cause}
	}

	payload, err := json.Marshal(chatRequest{
		Message:     text,
		UserID:      c.userID,
		PrivacyMode: c.privacyMode,
	})
	if err != nil {
		return nil, fail(0, errors.Wrap(err, "encode request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fail(0, errors.Wrap(err, "build request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", endpoint).Int("message_len", len(text)).Msg("Sending chat message")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().Int("status", resp.StatusCode).Msg("Chat response received")

	var body replyBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fail(resp.StatusCode, errors.Wrap(err, "decode response"))
	}
	if body.Response == nil {
		if body.Error != "" {
			return nil, fail(resp.StatusCode, errors.Wrap(ErrNoResponse, body.Error))
		}
		return nil, fail(resp.StatusCode, ErrNoResponse)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("backend_error", body.Error).
			Msg("Backend returned an error status with a response body")
	}

	return &Reply{
		Response:    *body.Response,
		Timestamp:   body.Timestamp,
		Status:      body.Status,
		Source:      body.Source,
		PrivacyMode: body.PrivacyMode,
		StatusCode:  resp.StatusCode,
	}, nil
}
