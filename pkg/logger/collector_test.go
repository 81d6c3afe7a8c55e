package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu       sync.Mutex
	topic    string
	payloads []interface{}
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestLogCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 10,
		Topic:          "candlepull.logs",
		Publisher:      pub,
	})

	fields := map[string]interface{}{"symbol": "MNQZ5"}
	c.AddLog("error", "fetch failed", fields, "usecase.go:10")
	c.AddLog("error", "fetch failed", fields, "usecase.go:10")
	c.AddLog("error", "persist failed", nil, "usecase.go:20")
	assert.Equal(t, 2, c.Pending())

	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "candlepull.logs", pub.topic)
	entries, ok := pub.payloads[0].([]AggregatedLogEntry)
	require.True(t, ok)
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, 2, counts["fetch failed"])
	assert.Equal(t, 1, counts["persist failed"])
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Publisher: pub})

	l.Error("token renewal failed", Error(errors.New("status 401")), String("account", "APEX_1"))
	l.Info("not collected")
	assert.Equal(t, 1, l.collector.Pending())

	l.RemoveCollector()
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.payloads, 1)
}
