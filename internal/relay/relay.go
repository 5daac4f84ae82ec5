// Package relay forwards agent messages to the external automation flow.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/pkg/logger"
	"github.com/atendimento/crm-dashboard/pkg/metrics"
	"github.com/atendimento/crm-dashboard/pkg/tracing"
)

// ErrClosed is reported for dispatches made after Close.
var ErrClosed = errors.New("relay closed")

// Config holds relay settings.
type Config struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Failure describes a payload that could not be delivered.
type Failure struct {
	MessageID string
	UserID    string
	Attempts  int
	Err       error
}

// Client posts payloads in the background. Dispatch never blocks on the
// network and never reports to its caller.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  *rate.Limiter
	logger   *logger.Logger
	tracer   trace.Tracer
	failures chan Failure

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a relay client.
func New(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
		burst = int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		cfg:      cfg,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger.OrGlobal(log).Named("relay"),
		tracer:   tracing.Tracer("crm-dashboard/relay"),
		failures: make(chan Failure, 64),
	}
}

// Failures exposes undelivered payloads. Run drains it when started.
func (c *Client) Failures() <-chan Failure {
	return c.failures
}

// Dispatch schedules delivery of payload. The request context is only used
// for its values; cancelling it does not abort delivery.
func (c *Client) Dispatch(ctx context.Context, payload model.AutomationPayload) {
	if c.cfg.URL == "" {
		c.logger.Debug("relay disabled, dropping payload", zap.String("message_id", payload.MessageID))
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		metrics.RecordRelay("dropped", 0)
		c.logFailure(Failure{MessageID: payload.MessageID, UserID: payload.UserID, Err: ErrClosed})
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		start := time.Now()
		attempts, err := c.deliver(ctx, payload)
		if err != nil {
			metrics.RecordRelay("failed", time.Since(start).Seconds())
			c.fail(Failure{
				MessageID: payload.MessageID,
				UserID:    payload.UserID,
				Attempts:  attempts,
				Err:       err,
			})
			return
		}

		metrics.RecordRelay("delivered", time.Since(start).Seconds())
		c.logger.Debug("payload relayed",
			zap.String("message_id", payload.MessageID),
			zap.Int("attempts", attempts),
			zap.Duration("duration", time.Since(start)),
		)
	}()
}

func (c *Client) deliver(ctx context.Context, payload model.AutomationPayload) (int, error) {
	ctx, span := c.tracer.Start(ctx, "relay.deliver",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("message_id", payload.MessageID),
			attribute.String("user_id", payload.UserID),
		),
	)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	attempts := 0
	op := func() error {
		attempts++
		return c.post(ctx, payload.MessageID, body)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = 0

	err = backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "relay failed")
	}
	span.SetAttributes(attribute.Int("attempts", attempts))
	return attempts, err
}

func (c *Client) post(ctx context.Context, messageID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "crm-dashboard-relay")
	req.Header.Set("X-Message-ID", messageID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("automation endpoint returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("automation endpoint rejected payload: %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) fail(f Failure) {
	select {
	case c.failures <- f:
	default:
		c.logFailure(f)
	}
}

func (c *Client) logFailure(f Failure) {
	c.logger.Error("relay failed",
		zap.String("message_id", f.MessageID),
		zap.String("user_id", f.UserID),
		zap.Int("attempts", f.Attempts),
		zap.Error(f.Err),
	)
}

// Run logs failures until Close has drained the client or ctx is done.
func (c *Client) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-c.failures:
			if !ok {
				return
			}
			c.logFailure(f)
		}
	}
}

// Wait blocks until every dispatched payload has finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Close stops accepting payloads and waits for in-flight deliveries until
// ctx is done.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(c.failures)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("relay drain: %w", ctx.Err())
	}
}
