package tradovate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FrameKind classifies a SockJS frame.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameOpen
	FrameHeartbeat
	FrameClose
	FrameData
)

func (k FrameKind) String() string {
	switch k {
	case FrameOpen:
		return "open"
	case FrameHeartbeat:
		return "heartbeat"
	case FrameClose:
		return "close"
	case FrameData:
		return "data"
	default:
		return "unknown"
	}
}

// heartbeatFrame is what the client sends both as keep-alive and as the
// answer to a server heartbeat.
const heartbeatFrame = "[]"

// Frame is one decoded SockJS frame. Messages is only set for FrameData.
type Frame struct {
	Kind     FrameKind
	Messages []json.RawMessage
}

// ParseFrame decodes a raw SockJS frame. Control frames are the exact single
// characters o, h and c. Data frames are "a[...]" and carry a JSON array whose
// elements are returned individually. Anything else is FrameUnknown.
func ParseFrame(raw []byte) (Frame, error) {
	switch string(raw) {
	case "o":
		return Frame{Kind: FrameOpen}, nil
	case "h":
		return Frame{Kind: FrameHeartbeat}, nil
	case "c":
		return Frame{Kind: FrameClose}, nil
	}

	if !bytes.HasPrefix(raw, []byte("a[")) || !bytes.HasSuffix(raw, []byte("]")) {
		return Frame{Kind: FrameUnknown}, nil
	}
	var msgs []json.RawMessage
	if err := json.Unmarshal(raw[1:], &msgs); err != nil {
		return Frame{Kind: FrameData}, fmt.Errorf("decode data frame: %w", err)
	}
	return Frame{Kind: FrameData, Messages: msgs}, nil
}

// EncodeRequest builds an outbound request: op, id, query and body joined by newlines.
func EncodeRequest(op string, id int, query, body string) string {
	var b strings.Builder
	b.Grow(len(op) + len(query) + len(body) + 8)
	b.WriteString(op)
	b.WriteByte('\n')
	b.WriteString(strconv.Itoa(id))
	b.WriteByte('\n')
	b.WriteString(query)
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}

// serverMessage covers both request replies ({s,i,d}) and events ({e,d}).
type serverMessage struct {
	Event  string          `json:"e"`
	Status *int            `json:"s"`
	ID     *int            `json:"i"`
	Data   json.RawMessage `json:"d"`
}

type chartEvent struct {
	Charts []chartPayload `json:"charts"`
}

type chartPayload struct {
	ID   int          `json:"id"`
	EOH  bool         `json:"eoh"`
	Bars []barPayload `json:"bars"`
}

type barPayload struct {
	Timestamp  string  `json:"timestamp"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	UpVolume   float64 `json:"upVolume"`
	DownVolume float64 `json:"downVolume"`
	UpTicks    float64 `json:"upTicks"`
	DownTicks  float64 `json:"downTicks"`
}

type shutdownEvent struct {
	ReasonCode string `json:"reasonCode"`
}

type chartRequest struct {
	Symbol           string           `json:"symbol"`
	ChartDescription chartDescription `json:"chartDescription"`
	TimeRange        timeRange        `json:"timeRange"`
}

type chartDescription struct {
	UnderlyingType  string `json:"underlyingType"`
	ElementSize     int    `json:"elementSize"`
	ElementSizeUnit string `json:"elementSizeUnit"`
	WithHistogram   bool   `json:"withHistogram"`
}

type timeRange struct {
	ClosestTimestamp string `json:"closestTimestamp"`
	AsMuchAsElements int    `json:"asMuchAsElements"`
}
