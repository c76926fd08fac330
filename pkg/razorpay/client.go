package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL     = "https://api.razorpay.com"
	defaultIFSCBaseURL = "https://ifsc.razorpay.com"
	defaultTimeout     = 10 * time.Second
)

// ErrUpstream wraps non-success responses from Razorpay endpoints.
var ErrUpstream = errors.New("razorpay request failed")

// Config contains credentials and endpoints used by the client.
type Config struct {
	KeyID       string
	KeySecret   string
	BaseURL     string
	IFSCBaseURL string
	Timeout     time.Duration
}

// Client talks to the Razorpay orders API and the public IFSC directory.
type Client struct {
	http     *http.Client
	keyID    string
	secret   string
	baseURL  string
	ifscBase string
	logger   zerolog.Logger
}

// New constructs a Razorpay client. Order creation requires credentials; IFSC lookups do not.
func New(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ifscBase := strings.TrimRight(cfg.IFSCBaseURL, "/")
	if ifscBase == "" {
		ifscBase = defaultIFSCBaseURL
	}

	return &Client{
		http:     &http.Client{Timeout: timeout},
		keyID:    cfg.KeyID,
		secret:   cfg.KeySecret,
		baseURL:  baseURL,
		ifscBase: ifscBase,
		logger:   logger.With().Str("component", "razorpay").Logger(),
	}
}

// OrderRequest is the payload for creating an order. Amount is in paise.
type OrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Order is the subset of the Razorpay order resource the API returns to clients.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder registers a new order with Razorpay.
func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (Order, error) {
	if c.keyID == "" || c.secret == "" {
		return Order{}, fmt.Errorf("razorpay credentials must be provided")
	}

	body, err := json.Marshal(order)
	if err != nil {
		return Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, err
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	var created Order
	if err := c.do(req, &created); err != nil {
		return Order{}, err
	}

	c.logger.Info().Str("order_id", created.ID).Int64("amount", created.Amount).Msg("order created")
	return created, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}
