package tradovate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CandlePull/internal/domain/models"
	drepo "CandlePull/internal/domain/repository"
	applogger "CandlePull/pkg/logger"
	"CandlePull/pkg/util"

	"github.com/gorilla/websocket"
)

const (
	defaultHeartbeat    = 2400 * time.Millisecond
	defaultChartTimeout = 30 * time.Second
	writeWait           = 5 * time.Second
)

// Option configures Client.
type Option func(*Client)

// WithHeartbeat sets the keep-alive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.heartbeat = d
		}
	}
}

// WithDefaultTimeout sets the deadline used when a query carries none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithClock overrides the time source used for the chart boundary.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client fetches historical chart bars over the market-data websocket.
// Each FetchCandles call uses its own connection.
type Client struct {
	url            string
	dialer         *websocket.Dialer
	heartbeat      time.Duration
	defaultTimeout time.Duration
	now            func() time.Time
	log            *applogger.Logger
}

var _ drepo.MarketData = (*Client)(nil)

// NewClient creates a market-data client for the websocket at url.
func NewClient(url string, log *applogger.Logger, opts ...Option) *Client {
	if log == nil {
		log = applogger.Nop()
	}
	c := &Client{
		url:            url,
		dialer:         websocket.DefaultDialer,
		heartbeat:      defaultHeartbeat,
		defaultTimeout: defaultChartTimeout,
		now:            time.Now,
		log:            log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type inbound struct {
	data []byte
	err  error
}

// FetchCandles runs one authorize + getChart session and returns the closed
// bars in ascending time order.
func (c *Client) FetchCandles(ctx context.Context, mdToken string, q models.ChartQuery) ([]models.Candle, error) {
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	boundary := util.LatestClosedBoundary(q.Timeframe, c.now())
	log := c.log.With(
		applogger.String("symbol", q.Symbol),
		applogger.Int("timeframe", q.Timeframe),
	)
	log.Debug("tradovate: requesting chart",
		applogger.Time("boundary", boundary),
		applogger.Int("bars", q.Bars),
	)

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	frames := make(chan inbound, 16)
	go readLoop(conn, frames, done)

	s := newSession(mdToken, q, boundary, log)
	// heartbeat write failures are logged only; a dead socket still surfaces
	// through the read side or the deadline
	send := func(msgs []string) error {
		for _, m := range msgs {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.TextMessage, []byte(m))
			if err == nil {
				continue
			}
			if m == heartbeatFrame {
				log.Warn("tradovate: heartbeat failed", applogger.Error(err))
				continue
			}
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
		return nil
	}

	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	if err := send(s.open()); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				log.Warn("tradovate: chart request timed out", applogger.String("state", s.state.String()))
				return nil, ErrTimeout
			}
			return nil, ctx.Err()

		case <-ticker.C:
			_ = send([]string{heartbeatFrame})

		case in := <-frames:
			if in.err != nil {
				var ce *websocket.CloseError
				if errors.As(in.err, &ce) {
					log.Debug("tradovate: connection closed", applogger.Int("code", ce.Code))
					return nil, s.closed()
				}
				return nil, fmt.Errorf("%w: %v", ErrConnection, in.err)
			}

			out, finished, err := s.handle(in.data)
			if sendErr := send(out); sendErr != nil && err == nil && !finished {
				return nil, sendErr
			}
			if err != nil {
				return nil, err
			}
			if finished {
				candles := s.result()
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				log.Debug("tradovate: end of history", applogger.Int("candles", len(candles)))
				return candles, nil
			}
		}
	}
}

func readLoop(conn *websocket.Conn, frames chan<- inbound, done <-chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		select {
		case frames <- inbound{data: data, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}
