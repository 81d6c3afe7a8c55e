// Package tradovatetest provides a scripted SockJS-style market-data server
// for tests.
package tradovatetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Request is one decoded client request.
type Request struct {
	Op    string
	ID    int
	Query string
	Body  string
}

// Script drives one accepted connection.
type Script func(c *Conn)

// Server is an httptest server speaking the market-data websocket framing.
type Server struct {
	*httptest.Server
	t      testing.TB
	script Script

	mu         sync.Mutex
	heartbeats int
	requests   []Request
}

// NewServer starts a server that runs script for every connection.
func NewServer(t testing.TB, script Script) *Server {
	t.Helper()
	s := &Server{t: t, script: script}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		s.script(&Conn{ws: ws, srv: s})
	}))
	t.Cleanup(s.Close)
	return s
}

// URL returns the websocket URL of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

// Heartbeats returns how many "[]" frames the client sent.
func (s *Server) Heartbeats() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeats
}

// Requests returns every non-heartbeat request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Conn is the server side of one client connection.
type Conn struct {
	ws  *websocket.Conn
	srv *Server
}

// Send writes a raw frame.
func (c *Conn) Send(frame string) error {
	return c.ws.WriteMessage(websocket.TextMessage, []byte(frame))
}

// SendData writes msgs as one "a[...]" data frame.
func (c *Conn) SendData(msgs ...interface{}) error {
	b, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return c.Send("a" + string(b))
}

// ReadRaw returns the next raw client frame, counting heartbeats.
func (c *Conn) ReadRaw() (string, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return "", err
	}
	if string(data) == "[]" {
		c.srv.mu.Lock()
		c.srv.heartbeats++
		c.srv.mu.Unlock()
	}
	return string(data), nil
}

// ReadRequest returns the next non-heartbeat request.
func (c *Conn) ReadRequest() (Request, error) {
	for {
		raw, err := c.ReadRaw()
		if err != nil {
			return Request{}, err
		}
		if raw == "[]" {
			continue
		}
		parts := strings.SplitN(raw, "\n", 4)
		if len(parts) != 4 {
			return Request{}, fmt.Errorf("malformed request %q", raw)
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			return Request{}, fmt.Errorf("malformed request id %q", parts[1])
		}
		req := Request{Op: parts[0], ID: id, Query: parts[2], Body: parts[3]}
		c.srv.mu.Lock()
		c.srv.requests = append(c.srv.requests, req)
		c.srv.mu.Unlock()
		return req, nil
	}
}

// Drain reads until the client goes away.
func (c *Conn) Drain() {
	for {
		if _, err := c.ReadRaw(); err != nil {
			return
		}
	}
}

// CloseNormal sends a close frame.
func (c *Conn) CloseNormal() {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// Bar builds a chart bar in the wire format.
func Bar(ts time.Time, open, high, low, close float64, upVol, downVol, upTicks, downTicks int) map[string]interface{} {
	return map[string]interface{}{
		"timestamp":  ts.UTC().Format("2006-01-02T15:04:05.000Z"),
		"open":       open,
		"high":       high,
		"low":        low,
		"close":      close,
		"upVolume":   upVol,
		"downVolume": downVol,
		"upTicks":    upTicks,
		"downTicks":  downTicks,
	}
}

// Bars builds n consecutive bars ending at last, step apart, oldest first.
func Bars(n int, last time.Time, step time.Duration) []interface{} {
	out := make([]interface{}, 0, n)
	for i := n - 1; i >= 0; i-- {
		px := 20000 + float64(n-i)
		out = append(out, Bar(last.Add(-time.Duration(i)*step), px, px+2, px-2, px+1, 10, 5, 4, 3))
	}
	return out
}

// ChartEvent wraps bars in a chart event.
func ChartEvent(id int, bars []interface{}) map[string]interface{} {
	return map[string]interface{}{
		"e": "chart",
		"d": map[string]interface{}{
			"charts": []interface{}{map[string]interface{}{"id": id, "bars": bars}},
		},
	}
}

// EndOfHistory is the chart event that terminates a historical request.
func EndOfHistory(id int) map[string]interface{} {
	return map[string]interface{}{
		"e": "chart",
		"d": map[string]interface{}{
			"charts": []interface{}{map[string]interface{}{"id": id, "eoh": true}},
		},
	}
}

// Reply builds a request reply.
func Reply(id, status int, d interface{}) map[string]interface{} {
	return map[string]interface{}{"i": id, "s": status, "d": d}
}

// ServeChart is the happy-path script: open, authorize, answer getChart with
// bars followed by end of history.
func ServeChart(t testing.TB, bars []interface{}) Script {
	return func(c *Conn) {
		if err := c.Send("o"); err != nil {
			return
		}
		auth, err := c.ReadRequest()
		if err != nil {
			t.Errorf("read authorize: %v", err)
			return
		}
		_ = c.SendData(Reply(auth.ID, 200, ""))

		chart, err := c.ReadRequest()
		if err != nil {
			t.Errorf("read getChart: %v", err)
			return
		}
		_ = c.SendData(Reply(chart.ID, 200, map[string]int{"historicalId": 7, "realtimeId": 8}))
		_ = c.SendData(ChartEvent(7, bars))
		_ = c.SendData(EndOfHistory(7))
		c.Drain()
	}
}
