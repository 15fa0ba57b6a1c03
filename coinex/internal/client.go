// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HTTPError is an unsuccessful http status from the exchange.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status code %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	opts Options

	restURL *url.URL

	client http.Client

	limiter *rate.Limiter

	key, secret string
}

// New returns a new client instance.
func New(key, secret string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	restURL, err := url.Parse(opts.RestURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		opts:    *opts,
		restURL: restURL,
		key:     key,
		secret:  secret,
		client: http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestBurst),
	}
	return c, nil
}

func (c *Client) endpoint(subpath string, values url.Values) *url.URL {
	u := *c.restURL
	u.Path = path.Join(u.Path, subpath)
	if values != nil {
		u.RawQuery = values.Encode()
	}
	return &u
}

func (c *Client) GetMarket(ctx context.Context, market string) (*MarketStatus, error) {
	values := make(url.Values)
	values.Set("market", market)

	var markets []*MarketStatus
	if _, err := doJSON(ctx, c, http.MethodGet, c.endpoint("/spot/market", values), nil, false, &markets); err != nil {
		return nil, fmt.Errorf("could not get market status: %w", err)
	}
	for _, m := range markets {
		if strings.EqualFold(m.Market, market) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("market %q not found", market)
}

// GetDepth returns the top levels of the order book.
func (c *Client) GetDepth(ctx context.Context, market string) (*MarketDepth, error) {
	values := make(url.Values)
	values.Set("market", market)
	values.Set("limit", "5")
	values.Set("interval", "0")

	depth := new(MarketDepth)
	if _, err := doJSON(ctx, c, http.MethodGet, c.endpoint("/spot/depth", values), nil, false, depth); err != nil {
		return nil, fmt.Errorf("could not get market depth: %w", err)
	}
	return depth, nil
}

// ListPendingOrders returns all open orders of a market.
func (c *Client) ListPendingOrders(ctx context.Context, market string) ([]*Order, error) {
	var all []*Order
	for page := 1; ; page++ {
		values := make(url.Values)
		values.Set("market", market)
		values.Set("market_type", "SPOT")
		values.Set("page", strconv.Itoa(page))
		values.Set("limit", "100")

		var orders []*Order
		pagination, err := doJSON(ctx, c, http.MethodGet, c.endpoint("/spot/pending-order", values), nil, true, &orders)
		if err != nil {
			return nil, fmt.Errorf("could not list pending orders: %w", err)
		}
		all = append(all, orders...)
		if pagination == nil || !pagination.HasNext || len(orders) == 0 {
			return all, nil
		}
	}
}

func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error) {
	order := new(Order)
	if _, err := doJSON(ctx, c, http.MethodPost, c.endpoint("/spot/order", nil), req, true, order); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not create order", "market", req.Market, "side", req.Side, "price", req.Price, "size", req.Amount, "err", err)
		}
		return nil, err
	}
	return order, nil
}

func (c *Client) CancelOrder(ctx context.Context, market string, orderID int64) (*Order, error) {
	req := &CancelOrderRequest{
		Market:     market,
		MarketType: "SPOT",
		OrderID:    orderID,
	}
	order := new(Order)
	if _, err := doJSON(ctx, c, http.MethodPost, c.endpoint("/spot/cancel-order", nil), req, true, order); err != nil {
		return nil, err
	}
	return order, nil
}

// sign adds the authentication headers. The signature covers method, path,
// query, body and the timestamp.
func (c *Client) sign(req *http.Request, body string) {
	var sb strings.Builder
	sb.WriteString(req.Method)
	sb.WriteString(req.URL.Path)
	if len(req.URL.RawQuery) != 0 {
		sb.WriteRune('?')
		sb.WriteString(req.URL.RawQuery)
	}
	sb.WriteString(body)

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	sb.WriteString(timestamp)

	hash := hmac.New(sha256.New, []byte(c.secret))
	io.WriteString(hash, sb.String())

	req.Header.Add("X-COINEX-KEY", c.key)
	req.Header.Add("X-COINEX-SIGN", fmt.Sprintf("%x", hash.Sum(nil)))
	req.Header.Add("X-COINEX-TIMESTAMP", timestamp)
}

func sleep(ctx context.Context, d time.Duration) error {
	sctx, scancel := context.WithTimeout(ctx, d)
	<-sctx.Done()
	scancel()
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}

// doJSON performs a request and decodes the data field of the response into
// the result. Requests with 429 or 502 status are retried after a pause.
func doJSON[PT *T, T any](ctx context.Context, c *Client, method string, addrURL *url.URL, request any, private bool, result PT) (*Pagination, error) {
	var body string
	if request != nil {
		data, err := json.Marshal(request)
		if err != nil {
			return nil, err
		}
		body = string(data)
	}

	for retry := 0; ; retry++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, addrURL.String(), strings.NewReader(body))
		if err != nil {
			slog.Error("could not create http request object with context", "method", method, "url", addrURL, "err", err)
			return nil, err
		}
		if request != nil {
			req.Header.Add("Content-Type", "application/json")
		}
		if private {
			c.sign(req, body)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("could not perform http request", "method", method, "url", addrURL, "err", err)
			}
			return nil, err
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			slog.Warn("http request returned unsuccessful status code", "method", method, "url", addrURL, "status-code", resp.StatusCode, "response", string(data))

			timeout := time.Duration(0)
			switch resp.StatusCode {
			case http.StatusBadGateway:
				timeout = time.Second
			case http.StatusTooManyRequests, http.StatusTeapot:
				timeout = time.Second
				if x := resp.Header.Get("Retry-After"); len(x) != 0 {
					if v, err := strconv.Atoi(x); err == nil {
						timeout = time.Duration(v) * time.Second
					}
				}
			}
			if timeout == 0 || retry >= c.opts.MaxRetries {
				return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
			}
			if err := sleep(ctx, timeout); err != nil {
				return nil, err
			}
			continue
		}

		var generic GenericResponse
		if err := json.Unmarshal(data, &generic); err != nil {
			slog.Error("could not unmarshal into generic response", "response", string(data), "err", err)
			return nil, err
		}
		if generic.Code != 0 {
			return nil, &APIError{Code: generic.Code, Message: generic.Message}
		}
		if len(generic.Data) != 0 {
			if err := json.Unmarshal(generic.Data, result); err != nil {
				slog.Error("could not decode response data", "url", addrURL, "err", err)
				return nil, err
			}
		}
		return generic.Pagination, nil
	}
}
