// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Feed streams best bid and offer updates for a set of markets over the
// websocket. Connection failures are retried with a backoff.
type Feed struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup

	opts Options

	markets []string

	handler func(*BBOUpdate)

	lastID atomic.Int64

	writeMu sync.Mutex
}

func NewFeed(markets []string, handler func(*BBOUpdate), opts *Options) (*Feed, error) {
	if len(markets) == 0 {
		return nil, fmt.Errorf("at least one market is required: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	f := &Feed{
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		opts:       *opts,
		markets:    markets,
		handler:    handler,
	}
	f.wg.Add(1)
	go f.goGetMessages(lifeCtx)
	return f, nil
}

// Close releases resources and destroys the feed.
func (f *Feed) Close() error {
	f.lifeCancel(os.ErrClosed)
	f.wg.Wait()
	return nil
}

func (f *Feed) goGetMessages(ctx context.Context) {
	defer f.wg.Done()

	for i := 0; ctx.Err() == nil; i = min(i+1, 5) {
		if err := f.getMessages(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("could not get messages over websocket (will retry)", "err", err)
			if err := sleep(ctx, time.Second<<i); err != nil {
				return
			}
		}
	}
}

func (f *Feed) getMessages(ctx context.Context) (status error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer func() {
		if status != nil {
			cancel(status)
		} else {
			cancel(os.ErrClosed)
		}
	}()

	dialer := websocket.Dialer{
		EnableCompression: true,
	}
	conn, _, err := dialer.DialContext(ctx, f.opts.WebsocketURL, nil)
	if err != nil {
		slog.Error("could not dial to websocket feed", "url", f.opts.WebsocketURL, "err", err)
		return err
	}
	defer conn.Close()

	params, err := json.Marshal(map[string][]string{"market_list": f.markets})
	if err != nil {
		return err
	}
	if err := f.send(conn, "bbo.subscribe", params); err != nil {
		return err
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()

		for ctx.Err() == nil {
			if err := sleep(ctx, f.opts.WebsocketPingInterval); err != nil {
				return
			}
			if err := f.send(conn, "server.ping", json.RawMessage("{}")); err != nil {
				slog.Error("websocket ping failed; reopening new socket", "err", err)
				cancel(err)
				return
			}
		}
	}()

	for ctx.Err() == nil {
		msg, err := readMessage(ctx, conn)
		if err != nil {
			return err
		}
		if err := f.handleMessage(msg); err != nil {
			return err
		}
	}
	return context.Cause(ctx)
}

func (f *Feed) send(conn *websocket.Conn, method string, params json.RawMessage) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	req := &WebsocketRequest{
		ID:     f.lastID.Add(1),
		Method: method,
		Params: params,
	}
	if err := conn.WriteJSON(req); err != nil {
		slog.Error("could not send websocket request", "method", method, "err", err)
		return err
	}
	return nil
}

func readMessage(ctx context.Context, conn *websocket.Conn) (json.RawMessage, error) {
	stopc := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
		close(stopc)
	})

	_, msg, err := conn.ReadMessage()
	if !stop() {
		<-stopc
		conn.SetReadDeadline(time.Time{})
		return nil, context.Cause(ctx)
	}
	if err != nil {
		return nil, err
	}

	// Some messages arrive gzip compressed even with the compression
	// negotiated by the dialer.
	if len(msg) > 2 && msg[0] == 0x1f && msg[1] == 0x8b {
		reader, err := gzip.NewReader(bytes.NewReader(msg))
		if err != nil {
			return nil, fmt.Errorf("could not create gzip reader: %w", err)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("could not uncompress websocket message: %w", err)
		}
		msg = data
	}
	return json.RawMessage(msg), nil
}

func (f *Feed) handleMessage(msg json.RawMessage) error {
	var header WebsocketHeader
	if err := json.Unmarshal(msg, &header); err != nil {
		slog.Error("could not unmarshal websocket message header", "msg", string(msg), "err", err)
		return err
	}

	switch {
	case header.IsResponse():
		var resp WebsocketResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			return err
		}
		if resp.Code != 0 {
			return fmt.Errorf("websocket request %d failed: code=%d message=%q", resp.ID, resp.Code, resp.Message)
		}
		return nil

	case header.IsNotice():
		if *header.Method != "bbo.update" {
			slog.Debug("ignoring websocket notice", "method", *header.Method)
			return nil
		}
		var notice WebsocketNotice
		if err := json.Unmarshal(msg, &notice); err != nil {
			return err
		}
		update := new(BBOUpdate)
		if err := json.Unmarshal(notice.Data, update); err != nil {
			slog.Error("could not unmarshal bbo update", "data", string(notice.Data), "err", err)
			return nil
		}
		if f.handler != nil {
			f.handler(update)
		}
		return nil
	}

	slog.Warn("could not identify websocket message type (ignored)", "msg", string(msg))
	return nil
}
