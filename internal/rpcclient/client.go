// Package rpcclient provides an HTTP client for an Octra node's REST API.
package rpcclient

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

	klog "github.com/Klingon-tech/octra-wallet/internal/log"
	"github.com/Klingon-tech/octra-wallet/pkg/tx"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 10 * time.Second

// DefaultHistoryLimit is the number of recent transactions requested from
// the address endpoint.
const DefaultHistoryLimit = 20

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 8 << 20

// ErrInvalidEndpoint is returned for base URLs without an http(s) scheme.
var ErrInvalidEndpoint = errors.New("invalid rpc endpoint")

// Client is an HTTP client for a single node.
type Client struct {
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
}

// New creates a new client targeting the given base URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, DefaultTimeout)
}

// NewWithTimeout creates a new client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		http: &http.Client{
			Timeout: timeout,
		},
		logger: klog.RPC,
	}
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ValidateEndpoint checks that s is an absolute http:// or https:// URL.
func ValidateEndpoint(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("%w: %q must start with http:// or https://", ErrInvalidEndpoint, s)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidEndpoint, s)
	}
	return nil
}

// HTTPError is returned when the node answers with a non-2xx status.
// Message is the node's error text, unmodified.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("node returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("node returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an HTTPError with status 404.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

// GetBalance fetches balance and nonce. A 404 yields the NotFound variant,
// which normalizes to zero balance and nonce.
func (c *Client) GetBalance(ctx context.Context, addr types.Address) (*BalanceReply, error) {
	body, err := c.get(ctx, "/balance/"+url.PathEscape(addr.String()))
	if IsNotFound(err) {
		return &BalanceReply{Variant: BalanceNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeBalance(body), nil
}

// GetAddressInfo fetches the address summary with up to limit recent
// transactions. A 404 yields an empty list.
func (c *Client) GetAddressInfo(ctx context.Context, addr types.Address, limit int) (*AddressInfo, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	path := "/address/" + url.PathEscape(addr.String()) + "?limit=" + strconv.Itoa(limit)
	body, err := c.get(ctx, path)
	if IsNotFound(err) {
		return &AddressInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	var info AddressInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode address info: %w", err)
	}
	return &info, nil
}

// GetTransaction fetches one transaction's detail. There is no fallback;
// a 404 is returned as an HTTPError.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*TxDetail, error) {
	body, err := c.get(ctx, "/tx/"+url.PathEscape(hash))
	if err != nil {
		return nil, err
	}
	var detail TxDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("decode tx %s: %w", hash, err)
	}
	return &detail, nil
}

// GetStaging fetches the node's staged (unconfirmed) transactions. A 404
// yields an empty set.
func (c *Client) GetStaging(ctx context.Context) (*Staging, error) {
	body, err := c.get(ctx, "/staging")
	if IsNotFound(err) {
		return &Staging{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s Staging
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("decode staging: %w", err)
	}
	return &s, nil
}

// SendTransaction posts a signed transaction to /send-tx.
func (c *Client) SendTransaction(ctx context.Context, st *tx.SignedTransaction) (*SendReply, error) {
	payload, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/send-tx", payload)
	if err != nil {
		return nil, err
	}
	return DecodeSendReply(body), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("node request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

// errorMessage extracts the node's error text: the "error" or "message"
// field of a JSON body, otherwise the body itself.
func errorMessage(body []byte) string {
	var obj struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &obj) == nil {
		var s string
		if len(obj.Error) > 0 && json.Unmarshal(obj.Error, &s) == nil && s != "" {
			return s
		}
		if obj.Message != "" {
			return obj.Message
		}
	}
	return strings.TrimSpace(string(body))
}
