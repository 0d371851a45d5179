// Package delivery hands sealed complaints to destination authorities over
// HTTPS and classifies the response.
//
// A request carries the tracking ID as Idempotency-Key, so a retry after an
// ambiguous timeout is safe for receivers that honour the header.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vozsegura/internal/derivation/metrics"
	id "vozsegura/pkg/domain"
	"vozsegura/pkg/platform/circuit"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultTotalTimeout   = 60 * time.Second
	maxDrainBytes         = 64 << 10
)

// Kind classifies a failed delivery.
type Kind string

const (
	KindRejected      Kind = "rejected"
	KindServerError   Kind = "server_error"
	KindTimeout       Kind = "timeout"
	KindNetwork       Kind = "network"
	KindMisconfigured Kind = "misconfigured"
	KindCircuitOpen   Kind = "circuit_open"
)

// Retryable reports whether a later attempt may succeed without operator action.
func (k Kind) Retryable() bool {
	switch k {
	case KindServerError, KindTimeout, KindNetwork, KindCircuitOpen:
		return true
	}
	return false
}

// Error is returned for every failed delivery.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("delivery %s: status %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("delivery %s: %v", e.Kind, e.Err)
	default:
		return "delivery " + string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind; ok is false for nil or foreign errors.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// Envelope addresses one sealed complaint to one destination.
type Envelope struct {
	TrackingID      id.TrackingID
	DestinationCode string
	Endpoint        string
	SealedPayload   []byte
	KeyID           string
}

// wireEnvelope is the request body. SealedPayload is base64 on the wire.
type wireEnvelope struct {
	TrackingID      string `json:"tracking_id"`
	DestinationCode string `json:"destination_code"`
	SealedPayload   []byte `json:"sealed_payload"`
	KeyID           string `json:"key_id"`
}

type Config struct {
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	// BreakerThreshold consecutive infrastructure failures open a destination's
	// circuit for BreakerCooldown. Zero disables fail-fast.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

type Client struct {
	http    *http.Client
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTransport replaces the TLS transport. Timeouts still apply.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.TotalTimeout <= 0 {
		cfg.TotalTimeout = defaultTotalTimeout
	}
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		ForceAttemptHTTP2:   true,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	c := &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.TotalTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cfg:      cfg,
		logger:   slog.Default(),
		tracer:   otel.Tracer("vozsegura/derivation/delivery"),
		breakers: make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver posts env to its endpoint. nil means the destination acknowledged
// with 200, 201 or 202; every other result is an *Error.
func (c *Client) Deliver(ctx context.Context, env Envelope) error {
	ctx, span := c.tracer.Start(ctx, "delivery.Deliver", trace.WithAttributes(
		attribute.String("vozsegura.destination.code", env.DestinationCode),
		attribute.String("vozsegura.tracking_id", env.TrackingID.String()),
	))
	defer span.End()

	start := time.Now()
	err := c.deliver(ctx, env)
	result := "delivered"
	if kind, ok := KindOf(err); ok {
		result = string(kind)
		span.SetStatus(codes.Error, result)
		span.RecordError(err)
		c.logger.WarnContext(ctx, "delivery failed",
			"tracking_id", env.TrackingID.String(),
			"destination", env.DestinationCode,
			"kind", result,
			"error", err,
		)
	}
	c.metrics.ObserveDeliveryLatency(env.DestinationCode, result, time.Since(start))
	return err
}

func (c *Client) deliver(ctx context.Context, env Envelope) error {
	u, err := url.Parse(env.Endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return &Error{Kind: KindMisconfigured, Err: errors.New("endpoint is not an absolute https URL")}
	}

	breaker := c.breaker(env.DestinationCode)
	if breaker != nil && !breaker.Allow() {
		return &Error{Kind: KindCircuitOpen}
	}

	body, err := json.Marshal(wireEnvelope{
		TrackingID:      env.TrackingID.String(),
		DestinationCode: env.DestinationCode,
		SealedPayload:   env.SealedPayload,
		KeyID:           env.KeyID,
	})
	if err != nil {
		return &Error{Kind: KindMisconfigured, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.TotalTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindMisconfigured, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", env.TrackingID.String())

	resp, err := c.http.Do(req)
	if err != nil {
		derr := classifyTransportError(err)
		c.record(breaker, derr)
		return derr
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		_ = resp.Body.Close()
	}()

	derr := classifyStatus(resp.StatusCode)
	c.record(breaker, derr)
	if derr != nil {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		return derr
	}
	return nil
}

func classifyStatus(status int) *Error {
	switch {
	case status == http.StatusOK, status == http.StatusCreated, status == http.StatusAccepted:
		return nil
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return &Error{Kind: KindServerError, StatusCode: status}
	case status >= 500:
		return &Error{Kind: KindServerError, StatusCode: status}
	case status >= 400:
		return &Error{Kind: KindRejected, StatusCode: status}
	default:
		// Other 2xx and redirects: the destination is not speaking the protocol.
		return &Error{Kind: KindMisconfigured, StatusCode: status}
	}
}

func classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindNetwork, Err: err}
}

func (c *Client) breaker(code string) *circuit.Breaker {
	if c.cfg.BreakerThreshold <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.breakers[code]
	if !ok {
		b = circuit.New("destination:"+code,
			circuit.WithFailureThreshold(c.cfg.BreakerThreshold),
			circuit.WithCooldown(c.cfg.BreakerCooldown),
		)
		c.breakers[code] = b
	}
	return b
}

// record feeds infrastructure failures to the breaker. A rejection proves the
// destination is reachable.
func (c *Client) record(b *circuit.Breaker, err *Error) {
	if b == nil {
		return
	}
	if err != nil && err.Kind.Retryable() {
		if _, change := b.RecordFailure(); change.Opened {
			c.logger.Warn("destination circuit opened", "breaker", b.Name())
		}
		return
	}
	if _, change := b.RecordSuccess(); change.Closed {
		c.logger.Info("destination circuit closed", "breaker", b.Name())
	}
}
