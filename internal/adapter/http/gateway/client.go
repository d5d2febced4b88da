// Package gateway talks to the remote transaction service and converts every
// failure into a *domain.Failure.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfpDev/bankTransations/internal/adapter/http/dto"
	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

// ClientIDHeader carries the per-installation client identifier.
const ClientIDHeader = "X-Client-Id"

// maxErrorBody bounds how much of a failure body is read.
const maxErrorBody = 1 << 20

// Operation names used in logs and metrics.
const (
	OpList               = "list"
	OpGet                = "get"
	OpListByCounterparty = "list_by_counterparty"
	OpCreate             = "create"
	OpUpdate             = "update"
	OpDelete             = "delete"
)

// Config holds gateway settings.
type Config struct {
	BaseURL              string
	Timeout              time.Duration
	ReadRetries          int
	RetryInitialInterval time.Duration
}

// Observer receives per-request measurements.
type Observer interface {
	GatewayRequest(op string, status int, d time.Duration)
	GatewayFailure(op string, kind string)
}

type nopObserver struct{}

func (nopObserver) GatewayRequest(string, int, time.Duration) {}

func (nopObserver) GatewayFailure(string, string) {}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// Client implements usecase.Gateway over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	ids      usecase.ClientIDSource
	retrier  *Retrier
	logger   zerolog.Logger
	observer Observer
}

var _ usecase.Gateway = (*Client)(nil)

// NewClient creates a new Client.
func NewClient(cfg Config, ids usecase.ClientIDSource, logger zerolog.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:  strings.TrimRight(u.String(), "/"),
		http:     &http.Client{Timeout: timeout},
		ids:      ids,
		retrier:  NewRetrier(cfg.ReadRetries, cfg.RetryInitialInterval, logger),
		logger:   logger,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListTransactions fetches every transaction.
func (c *Client) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var out []dto.TransactionResponse
	if err := c.call(ctx, OpList, http.MethodGet, "/transaction", nil, &out); err != nil {
		return nil, err
	}
	return dto.TransactionsToDomain(out), nil
}

// GetTransaction fetches a single transaction.
func (c *Client) GetTransaction(ctx context.Context, id int64) (domain.Transaction, error) {
	var out dto.TransactionResponse
	if err := c.call(ctx, OpGet, http.MethodGet, transactionPath(id), nil, &out); err != nil {
		return domain.Transaction{}, err
	}
	return out.ToDomain(), nil
}

// ListByCounterparty fetches the transactions of one counterparty.
func (c *Client) ListByCounterparty(ctx context.Context, name string) ([]domain.Transaction, error) {
	var out []dto.TransactionResponse
	path := "/transaction/tenpista/" + url.PathEscape(name)
	if err := c.call(ctx, OpListByCounterparty, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return dto.TransactionsToDomain(out), nil
}

// CreateTransaction creates t and returns the stored record.
func (c *Client) CreateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	var out dto.TransactionResponse
	body := dto.TransactionRequestFromDomain(t)
	if err := c.call(ctx, OpCreate, http.MethodPost, "/transaction", body, &out); err != nil {
		return domain.Transaction{}, err
	}
	return out.ToDomain(), nil
}

// UpdateTransaction replaces the record id with t.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, t domain.Transaction) (domain.Transaction, error) {
	var out dto.TransactionResponse
	body := dto.TransactionRequestFromDomain(t)
	if err := c.call(ctx, OpUpdate, http.MethodPut, transactionPath(id), body, &out); err != nil {
		return domain.Transaction{}, err
	}
	return out.ToDomain(), nil
}

// DeleteTransaction removes the record id.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.call(ctx, OpDelete, http.MethodDelete, transactionPath(id), nil, nil)
}

func transactionPath(id int64) string {
	return "/transaction/" + strconv.FormatInt(id, 10)
}

// call runs one operation. Reads go through the retrier; writes are sent once.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	err := c.send(ctx, op, method, path, body, out)
	if err == nil {
		return nil
	}

	failure := normalize(err)
	c.observer.GatewayFailure(op, failure.Kind.String())
	c.logger.Warn().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", failure.HTTPStatus).
		Str("kind", failure.Kind.String()).
		Msg(failure.Message)
	return failure
}

func (c *Client) send(ctx context.Context, op, method, path string, body, out any) error {
	clientID, err := c.ids.ClientID(ctx)
	if err != nil {
		return domain.NewLocalFailure(err)
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return domain.NewLocalFailure(fmt.Errorf("encode request: %w", err))
		}
	}

	attempt := func() error {
		return c.do(ctx, op, method, path, clientID, payload, out)
	}

	if method == http.MethodGet {
		return c.retrier.Retry(ctx, attempt)
	}
	return attempt()
}

func (c *Client) do(ctx context.Context, op, method, path, clientID string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return domain.NewLocalFailure(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(ClientIDHeader, clientID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewTransportFailure(err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	c.observer.GatewayRequest(op, resp.StatusCode, duration)
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("gateway request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeFailure(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewUnreadableResponseFailure(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// decodeFailure builds the failure for a non-success response. A body that is
// not the service's error shape still yields the response status.
func decodeFailure(resp *http.Response) *domain.Failure {
	var body dto.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	f := domain.NewServiceFailure(resp.StatusCode, body.Message, body.Details)
	f.ErrorCode = body.Error
	f.Path = body.Path
	return f
}

// normalize makes sure the caller always sees a *domain.Failure. Errors that
// escape the retrier without one (context expiry) mean no response arrived.
func normalize(err error) *domain.Failure {
	var f *domain.Failure
	if errors.As(err, &f) {
		return f
	}
	return domain.NewTransportFailure(err)
}
