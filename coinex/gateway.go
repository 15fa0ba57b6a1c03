// Copyright (c) 2025 BVK Chaitanya

// Package coinex implements the exchange gateway for CoinEx spot markets.
// Pair names are CoinEx market names, like BTCUSDT.
package coinex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bvk/ladderbot/coinex/internal"
	"github.com/bvk/ladderbot/exchange"
	"github.com/shopspring/decimal"
)

type quote struct {
	exchange.Quote

	receivedAt time.Time
}

type Gateway struct {
	opts Options

	client *internal.Client

	mu sync.Mutex

	feed *internal.Feed

	markets map[string]*internal.MarketStatus

	quotes map[string]*quote
}

var _ exchange.Gateway = &Gateway{}

func New(creds *Credentials, opts *Options) (*Gateway, error) {
	if err := creds.Check(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	client, err := internal.New(creds.Key, creds.Secret, &internal.Options{
		RestURL:               opts.RestURL,
		WebsocketURL:          opts.WebsocketURL,
		HttpClientTimeout:     opts.HttpClientTimeout,
		WebsocketPingInterval: opts.WebsocketPingInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create coinex client: %w", err)
	}
	g := &Gateway{
		opts:    *opts,
		client:  client,
		markets: make(map[string]*internal.MarketStatus),
		quotes:  make(map[string]*quote),
	}
	return g, nil
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	feed := g.feed
	g.feed = nil
	g.mu.Unlock()

	if feed != nil {
		feed.Close()
	}
	return nil
}

// Prepare loads the market precision rules for the pairs and starts streaming
// their quotes over the websocket.
func (g *Gateway) Prepare(ctx context.Context, pairs ...string) error {
	for _, pair := range pairs {
		market, err := g.client.GetMarket(ctx, pair)
		if err != nil {
			return fmt.Errorf("could not load market %q: %w", pair, err)
		}
		g.mu.Lock()
		g.markets[pair] = market
		g.mu.Unlock()
	}

	g.mu.Lock()
	var markets []string
	for k := range g.markets {
		markets = append(markets, k)
	}
	old := g.feed
	g.feed = nil
	g.mu.Unlock()

	// Feed handlers take g.mu, so feeds are closed and started without it.
	if old != nil {
		old.Close()
	}
	feed, err := internal.NewFeed(markets, g.onBBOUpdate, &internal.Options{
		WebsocketURL:          g.opts.WebsocketURL,
		WebsocketPingInterval: g.opts.WebsocketPingInterval,
	})
	if err != nil {
		return fmt.Errorf("could not start the websocket feed: %w", err)
	}

	g.mu.Lock()
	prev := g.feed
	g.feed = feed
	g.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return nil
}

func (g *Gateway) onBBOUpdate(v *internal.BBOUpdate) {
	q := &quote{
		Quote:      exchange.Quote{Bid: v.BestBidPrice, Ask: v.BestAskPrice},
		receivedAt: time.Now(),
	}
	g.mu.Lock()
	g.quotes[v.Market] = q
	g.mu.Unlock()
}

func (g *Gateway) GetMidPrice(ctx context.Context, pair string) (*exchange.Quote, error) {
	g.mu.Lock()
	q, ok := g.quotes[pair]
	g.mu.Unlock()
	if ok && time.Since(q.receivedAt) <= g.opts.MaxQuoteAge {
		v := q.Quote
		return &v, nil
	}

	depth, err := g.client.GetDepth(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", exchange.ErrPriceUnavailable, err)
	}
	if len(depth.Depth.Bids) == 0 || len(depth.Depth.Asks) == 0 {
		return nil, fmt.Errorf("%w: order book for %q is empty", exchange.ErrPriceUnavailable, pair)
	}
	v := &exchange.Quote{
		Bid: depth.Depth.Bids[0][0],
		Ask: depth.Depth.Asks[0][0],
	}
	return v, nil
}

func (g *Gateway) GetOpenOrders(ctx context.Context, pair string) ([]*exchange.RemoteOrder, error) {
	orders, err := g.client.ListPendingOrders(ctx, pair)
	if err != nil {
		return nil, err
	}
	var remote []*exchange.RemoteOrder
	for _, v := range orders {
		side, err := exchange.ParseSide(v.Side)
		if err != nil {
			slog.Warn("ignoring open order with unknown side", "pair", pair, "id", v.OrderID, "side", v.Side)
			continue
		}
		remote = append(remote, &exchange.RemoteOrder{
			ID:            strconv.FormatInt(v.OrderID, 10),
			ClientOrderID: v.ClientOrderID,
			Side:          side,
			Price:         v.OrderPrice,
			Quantity:      v.UnfilledAmount,
		})
	}
	return remote, nil
}

func (g *Gateway) PlaceOrder(ctx context.Context, pair, clientOrderID string, side exchange.Side, price, quantity decimal.Decimal) (*exchange.RemoteOrder, error) {
	req := &internal.CreateOrderRequest{
		ClientOrderID: clientOrderID,
		Market:        pair,
		MarketType:    "SPOT",
		Side:          strings.ToLower(string(side)),
		OrderType:     "limit",
		Amount:        quantity,
		Price:         price,
	}
	order, err := g.client.CreateOrder(ctx, req)
	if err != nil {
		if isRejected(err) {
			return nil, fmt.Errorf("%w: %w", exchange.ErrRejected, err)
		}
		return nil, err
	}
	v := &exchange.RemoteOrder{
		ID:            strconv.FormatInt(order.OrderID, 10),
		ClientOrderID: clientOrderID,
		Side:          side,
		Price:         price,
		Quantity:      quantity,
	}
	return v, nil
}

func (g *Gateway) CancelOrder(ctx context.Context, pair, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid coinex order id %q: %w", orderID, os.ErrInvalid)
	}
	if _, err := g.client.CancelOrder(ctx, pair, id); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("order %s: %w", orderID, exchange.ErrNotFound)
		}
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *internal.APIError
	if errors.As(err, &apiErr) && apiErr.Code == internal.CodeOrderNotFound {
		return true
	}
	var httpErr *internal.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// isRejected returns true for responses that prove the order was not created:
// an error code in the response body or a client error status other than the
// throttling ones.
func isRejected(err error) bool {
	var apiErr *internal.APIError
	if errors.As(err, &apiErr) {
		return true
	}
	var httpErr *internal.HTTPError
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusTeapot && code != http.StatusRequestTimeout
	}
	return false
}

func (g *Gateway) market(pair string) (*internal.MarketStatus, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.markets[pair]
	return m, ok
}

// FormatPrice truncates the price to the market's quote precision. Pairs
// that were not prepared are formatted unchanged.
func (g *Gateway) FormatPrice(pair string, v decimal.Decimal) string {
	m, ok := g.market(pair)
	if !ok {
		slog.Warn("market precision is unknown (not prepared?)", "pair", pair)
		return v.String()
	}
	return v.Truncate(m.QuotePrecision).StringFixed(m.QuotePrecision)
}

func (g *Gateway) FormatQuantity(pair string, v decimal.Decimal) string {
	m, ok := g.market(pair)
	if !ok {
		slog.Warn("market precision is unknown (not prepared?)", "pair", pair)
		return v.String()
	}
	return v.Truncate(m.BasePrecision).StringFixed(m.BasePrecision)
}
