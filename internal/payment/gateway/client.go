// Package gateway is a client for the PagBank Orders API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"enroll/internal/payment/metrics"
	"enroll/internal/platform/config"
	"enroll/pkg/platform/circuit"
	dErrors "enroll/pkg/domain-errors"
)

const (
	SandboxURL    = "https://sandbox.api.pagseguro.com"
	ProductionURL = "https://api.pagseguro.com"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

var tracer = otel.Tracer("enroll/payment/gateway")

// Client calls the gateway with a bearer token. Every call is bounded by the
// configured timeout and guarded by a circuit breaker.
type Client struct {
	cfg     config.Gateway
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(cfg config.Gateway, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = SandboxURL
		if cfg.Environment == config.EnvProduction {
			baseURL = ProductionURL
		}
	}
	c := &Client{
		cfg:     cfg,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.New("pagbank", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Environment reports "sandbox" or "production".
func (c *Client) Environment() string {
	if c.cfg.Environment == config.EnvProduction {
		return config.EnvProduction
	}
	return config.EnvSandbox
}

// CreateOrder posts an order. PIX orders get a hint when the gateway rejects
// them for lack of a registered PIX key.
func (c *Client) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, "create_order", "/orders", req, &order); err != nil {
		if len(req.QRCodes) > 0 {
			return nil, withPixHint(err)
		}
		return nil, err
	}
	if order.ID == "" {
		return nil, dErrors.New(dErrors.CodeUpstreamGateway, "payment gateway returned an order without id")
	}
	return &order, nil
}

// CreatePublicKey asks the gateway for a new card encryption key.
func (c *Client) CreatePublicKey(ctx context.Context) (*PublicKey, error) {
	var key PublicKey
	if err := c.do(ctx, "create_public_key", "/public-keys", map[string]string{"type": "card"}, &key); err != nil {
		return nil, err
	}
	if key.PublicKey == "" {
		return nil, dErrors.New(dErrors.CodeUpstreamGateway, "payment gateway returned no public key")
	}
	return &key, nil
}

func (c *Client) do(ctx context.Context, operation, path string, body, out any) (err error) {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "pagbank."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("pagbank.operation", operation),
		attribute.String("pagbank.environment", c.Environment()),
	)

	start := time.Now()
	outcome := "ok"
	defer func() {
		c.metrics.ObserveGatewayLatency(operation, outcome, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if !c.breaker.Allow() {
		outcome = "short_circuit"
		return dErrors.New(dErrors.CodeUpstreamGateway, "payment gateway temporarily unavailable")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		outcome = "error"
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode gateway request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		outcome = "error"
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(ctx, operation)
		if isTimeout(err) {
			outcome = "timeout"
			return dErrors.Wrap(err, dErrors.CodeUpstreamTimeout, "payment gateway timed out")
		}
		outcome = "error"
		return dErrors.Wrap(err, dErrors.CodeUpstreamGateway, "payment gateway unreachable")
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.recordFailure(ctx, operation)
		outcome = "error"
		if isTimeout(err) {
			outcome = "timeout"
			return dErrors.Wrap(err, dErrors.CodeUpstreamTimeout, "payment gateway timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUpstreamGateway, "failed to read gateway response")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure(ctx, operation)
	} else {
		c.breaker.RecordSuccess()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "error"
		description := firstDescription(raw)
		c.logger.WarnContext(ctx, "payment gateway rejected request",
			"operation", operation,
			"status", resp.StatusCode,
			"description", description,
		)
		return dErrors.Newf(dErrors.CodeUpstreamGateway, "payment gateway rejected %s", strings.ReplaceAll(operation, "_", " ")).
			WithUpstream(resp.StatusCode, description)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		outcome = "error"
		return dErrors.Wrap(err, dErrors.CodeUpstreamGateway, "payment gateway returned an unreadable response")
	}
	return nil
}

func (c *Client) recordFailure(ctx context.Context, operation string) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "payment gateway circuit opened", "operation", operation)
	}
}

// firstDescription extracts error_messages[0].description, falling back to
// the raw body when it is not the documented error shape.
func firstDescription(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && len(body.ErrorMessages) > 0 {
		return body.ErrorMessages[0].Description
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

const pixKeyHint = "check that a PIX key is registered on the PagBank account"

func withPixHint(err error) error {
	de, ok := dErrors.As(err)
	if !ok || de.Code != dErrors.CodeUpstreamGateway || de.Upstream == nil {
		return err
	}
	desc := de.Upstream.Description
	if !strings.Contains(desc, "PIX") && !strings.Contains(strings.ToLower(desc), "key") {
		return err
	}
	return dErrors.Newf(dErrors.CodeUpstreamGateway, "payment gateway rejected create order: %s", pixKeyHint).
		WithUpstream(de.Upstream.Status, desc)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
