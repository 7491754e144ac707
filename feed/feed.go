// Copyright (c) 2026 BVK Chaitanya

// Package feed maintains a websocket connection to a market-data endpoint
// and republishes ticker prices through a topic. The connection is redialed
// with a backoff whenever it drops; subscribers only ever see a stream of
// prices.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bvk/balancebot/ctxutil"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
)

type Options struct {
	// URL is the websocket endpoint serving ticker messages.
	URL string

	// RetryInterval is the wait between redial attempts.
	RetryInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.RetryInterval == 0 {
		v.RetryInterval = 5 * time.Second
	}
}

// Message is a single frame from the ticker endpoint.
type Message struct {
	Type string `json:"type"`

	// Message holds a description when Type is "error".
	Message string `json:"message"`

	Price decimal.Decimal `json:"price"`
}

type Feed struct {
	cg ctxutil.CloseGroup

	opts Options

	prices *topic.Topic[decimal.Decimal]
}

// New starts a feed for the given endpoint. Close must be called to stop
// the background dialer.
func New(opts *Options) (*Feed, error) {
	if opts == nil || opts.URL == "" {
		return nil, fmt.Errorf("feed endpoint url is required")
	}
	o := *opts
	o.setDefaults()

	f := &Feed{
		opts:   o,
		prices: topic.New[decimal.Decimal](),
	}
	f.cg.Go(f.goDispatch)
	return f, nil
}

func (f *Feed) Close() error {
	f.cg.Close()
	return nil
}

// PriceUpdates subscribes to the ticker price stream.
func (f *Feed) PriceUpdates() (*topic.Receiver[decimal.Decimal], error) {
	return topic.Subscribe(f.prices, 1, true)
}

func (f *Feed) goDispatch(ctx context.Context) {
	for ctx.Err() == nil {
		if err := f.dispatch(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("ticker feed connection has failed (will retry)", "url", f.opts.URL, "err", err)
			ctxutil.Sleep(ctx, f.opts.RetryInterval)
		}
	}
}

func (f *Feed) dispatch(ctx context.Context) error {
	var dialer websocket.Dialer
	conn, _, err := dialer.DialContext(ctx, f.opts.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	slog.Info("connected to ticker feed", "url", f.opts.URL)

	for ctx.Err() == nil {
		msg, err := readMessage(ctx, conn)
		if err != nil {
			return err
		}
		if msg.Type != "ticker" {
			continue
		}
		f.prices.Send(msg.Price)
	}
	return context.Cause(ctx)
}

func readMessage(ctx context.Context, conn *websocket.Conn) (*Message, error) {
	stopc := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
		close(stopc)
	})

	_, data, err := conn.ReadMessage()
	if !stop() {
		// The AfterFunc has started. Wait for it to complete and reset
		// the connection's deadline.
		<-stopc
		conn.SetReadDeadline(time.Time{})
		return nil, context.Cause(ctx)
	}
	if err != nil {
		return nil, err
	}

	m := new(Message)
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("could not unmarshal feed message: %w", err)
	}
	if m.Type == "error" {
		return nil, fmt.Errorf("feed error message: %s", m.Message)
	}
	return m, nil
}
