package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-leadform/pkg/engine"
)

const (
	DefaultBaseURL         = "https://formspree.io"
	DefaultTimeout         = 15 * time.Second
	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = 30 * time.Second
)

// Config describes the form service endpoint and the guards around it.
type Config struct {
	BaseURL string
	FormID  string
	Timeout time.Duration
	// RatePerMinute caps outbound submissions; zero disables the limiter.
	RatePerMinute float64
	Burst         int
	// BreakerFailures is the number of consecutive failures that opens the
	// breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Recorder observes the outcome and latency of each delivery.
type Recorder interface {
	ObserveSubmission(formID, outcome string, elapsed time.Duration)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport used by resty.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(c *Client) {
		c.recorder = rec
	}
}

// WithLimiter overrides the limiter built from Config.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// Client posts payloads to a Formspree-compatible service. Each call is
// attempted exactly once.
type Client struct {
	cfg        Config
	httpClient *http.Client
	rest       *resty.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     zerolog.Logger
	recorder   Recorder
}

// New builds a client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = normalise(cfg)
	if cfg.FormID == "" {
		return nil, ErrMissingFormID
	}

	c := &Client{
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	if cfg.RatePerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerMinute/60), cfg.Burst)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.httpClient != nil {
		c.rest = resty.NewWithClient(c.httpClient)
	} else {
		c.rest = resty.New()
	}
	c.rest.
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	failures := cfg.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "formservice",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("form service breaker state changed")
		},
	})
	return c, nil
}

func normalise(cfg Config) Config {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.FormID = strings.TrimSpace(cfg.FormID)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultBreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = DefaultBreakerCooldown
	}
	return cfg
}

// client-side rejections say nothing about the service's health.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	if respErr, ok := AsResponseError(err); ok {
		return !respErr.Temporary()
	}
	return false
}

// FormID returns the configured default form id.
func (c *Client) FormID() string {
	return c.cfg.FormID
}

// Endpoint returns the absolute URL for formID.
func (c *Client) Endpoint(formID string) string {
	return c.cfg.BaseURL + "/f/" + formID
}

// Submit delivers payload to the default form. It satisfies engine.Submitter.
func (c *Client) Submit(ctx context.Context, payload engine.Payload) error {
	return c.Send(ctx, c.cfg.FormID, payload)
}

// ForForm returns a Submitter bound to another form id on the same service.
func (c *Client) ForForm(formID string) engine.Submitter {
	return engine.SubmitterFunc(func(ctx context.Context, payload engine.Payload) error {
		return c.Send(ctx, formID, payload)
	})
}

// Send posts payload to formID once.
func (c *Client) Send(ctx context.Context, formID string, payload engine.Payload) error {
	formID = strings.TrimSpace(formID)
	if formID == "" {
		return ErrMissingFormID
	}
	start := time.Now()
	err := c.send(ctx, formID, payload)
	c.observe(formID, err, time.Since(start))
	return err
}

func (c *Client) send(ctx context.Context, formID string, payload engine.Payload) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, formID, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrBreakerOpen, err)
	}
	return err
}

func (c *Client) post(ctx context.Context, formID string, payload engine.Payload) error {
	var failure errorBody
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(map[string]string(payload)).
		SetError(&failure).
		Post("/f/" + formID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("submission: post %s: %w", formID, err)
	}
	if resp.IsSuccess() {
		c.logger.Debug().
			Str("form", formID).
			Int("status", resp.StatusCode()).
			Int("fields", len(payload)).
			Msg("form service accepted payload")
		return nil
	}

	respErr := &ResponseError{
		StatusCode: resp.StatusCode(),
		Message:    failure.Error,
		Fields:     failure.Errors,
	}
	// resty only decodes JSON error bodies; keep plain text replies readable.
	if respErr.Message == "" && len(respErr.Fields) == 0 {
		body := resp.Body()
		if len(body) > 0 && !json.Valid(body) {
			respErr.Message = strings.TrimSpace(string(body))
		}
	}
	if respErr.Message == "" && len(respErr.Fields) == 0 {
		respErr.Message = http.StatusText(resp.StatusCode())
	}
	return respErr
}

func (c *Client) observe(formID string, err error, elapsed time.Duration) {
	outcome := Outcome(err)
	if c.recorder != nil {
		c.recorder.ObserveSubmission(formID, outcome, elapsed)
	}
	if err != nil {
		c.logger.Error().Err(err).
			Str("form", formID).
			Str("outcome", outcome).
			Dur("elapsed", elapsed).
			Msg("form submission failed")
	}
}

// Outcome labels err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrBreakerOpen):
		return "breaker_open"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	if respErr, ok := AsResponseError(err); ok {
		if respErr.Temporary() {
			return "server_error"
		}
		return "rejected"
	}
	return "transport_error"
}

// SenderFunc adapts a function into the Send shape used for named forms.
type SenderFunc func(ctx context.Context, formID string, payload engine.Payload) error

// Send calls the underlying function.
func (fn SenderFunc) Send(ctx context.Context, formID string, payload engine.Payload) error {
	return fn(ctx, formID, payload)
}

// Nop returns a Submitter that accepts every payload without a network call.
// It backs the --dry-run mode.
func Nop(logger zerolog.Logger) engine.Submitter {
	send := NopSender(logger)
	return engine.SubmitterFunc(func(ctx context.Context, payload engine.Payload) error {
		return send(ctx, "", payload)
	})
}

// NopSender is the named-form counterpart of Nop.
func NopSender(logger zerolog.Logger) SenderFunc {
	return func(ctx context.Context, formID string, payload engine.Payload) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		event := logger.Info().Int("fields", len(payload))
		if formID != "" {
			event = event.Str("form", formID)
		}
		for _, key := range payload.Keys() {
			event = event.Str(key, payload[key])
		}
		event.Msg("dry-run submission")
		return nil
	}
}
