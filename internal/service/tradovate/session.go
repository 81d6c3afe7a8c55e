package tradovate

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"CandlePull/internal/domain/models"
	applogger "CandlePull/pkg/logger"
	"CandlePull/pkg/util"
)

type sessionState int

const (
	stateConnecting sessionState = iota
	stateAuthSent
	stateAuthorized
	stateStreaming
	stateDone
)

func (s sessionState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateAuthSent:
		return "auth_sent"
	case stateAuthorized:
		return "authorized"
	case stateStreaming:
		return "streaming"
	default:
		return "done"
	}
}

// session is the protocol state machine for one chart request. It performs no
// I/O: the client feeds it inbound frames and writes whatever it returns.
type session struct {
	query    models.ChartQuery
	mdToken  string
	boundary time.Time
	log      *applogger.Logger

	state   sessionState
	nextID  int
	authID  int
	chartID int
	candles []models.Candle
}

func newSession(mdToken string, q models.ChartQuery, boundary time.Time, log *applogger.Logger) *session {
	return &session{
		query:    q,
		mdToken:  mdToken,
		boundary: boundary.UTC(),
		log:      log,
		state:    stateConnecting,
		nextID:   1,
	}
}

func (s *session) newID() int {
	id := s.nextID
	s.nextID++
	return id
}

// open returns the authorize request sent right after the socket connects.
func (s *session) open() []string {
	s.authID = s.newID()
	s.state = stateAuthSent
	return []string{EncodeRequest("authorize", s.authID, "", s.mdToken)}
}

// handle consumes one inbound frame. done reports that end of history was
// reached and result() is ready.
func (s *session) handle(raw []byte) (out []string, done bool, err error) {
	frame, err := ParseFrame(raw)
	if err != nil {
		s.log.Warn("tradovate: dropping malformed frame", applogger.Error(err))
		return nil, false, nil
	}

	switch frame.Kind {
	case FrameHeartbeat:
		return []string{heartbeatFrame}, false, nil
	case FrameData:
	default:
		return nil, false, nil
	}

	for _, rawMsg := range frame.Messages {
		var msg serverMessage
		if err := json.Unmarshal(rawMsg, &msg); err != nil {
			s.log.Warn("tradovate: dropping undecodable message", applogger.Error(err))
			continue
		}

		var (
			reply    []string
			finished bool
		)
		switch {
		case msg.Status != nil:
			reply, err = s.onReply(msg)
		case msg.Event == "chart":
			finished, err = s.onChart(msg.Data)
		case msg.Event == "shutdown":
			err = s.onShutdown(msg.Data)
		}
		out = append(out, reply...)
		if err != nil {
			return out, false, err
		}
		if finished {
			s.state = stateDone
			return out, true, nil
		}
	}
	return out, false, nil
}

func (s *session) onReply(msg serverMessage) ([]string, error) {
	status := *msg.Status
	if status == http.StatusOK {
		if s.state != stateAuthSent {
			return nil, nil
		}
		s.state = stateAuthorized
		s.log.Debug("tradovate: authorized")
		req, err := s.chartRequest()
		if err != nil {
			return nil, err
		}
		return []string{req}, nil
	}

	if msg.ID == nil {
		return nil, nil
	}
	switch *msg.ID {
	case s.authID:
		return nil, fmt.Errorf("%w: status %d %s", ErrAuthRejected, status, detail(msg.Data))
	case s.chartID:
		return nil, fmt.Errorf("%w: status %d %s", ErrChartRejected, status, detail(msg.Data))
	}
	return nil, nil
}

func (s *session) chartRequest() (string, error) {
	body, err := json.Marshal(chartRequest{
		Symbol: s.query.Symbol,
		ChartDescription: chartDescription{
			UnderlyingType:  "MinuteBar",
			ElementSize:     s.query.Timeframe,
			ElementSizeUnit: "UnderlyingUnits",
			WithHistogram:   false,
		},
		TimeRange: timeRange{
			ClosestTimestamp: util.FormatUTCSeconds(s.boundary),
			// one extra bar: the newest one is still forming and gets dropped
			AsMuchAsElements: s.query.Bars + 1,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode chart request: %w", err)
	}
	s.chartID = s.newID()
	return EncodeRequest("md/getChart", s.chartID, "", string(body)), nil
}

func (s *session) onChart(data json.RawMessage) (bool, error) {
	s.state = stateStreaming

	var ev chartEvent
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ev); err != nil {
			s.log.Warn("tradovate: dropping undecodable chart event", applogger.Error(err))
			return false, nil
		}
	}

	for _, chart := range ev.Charts {
		// end of history ends the session; bars riding on that chart are not kept
		if chart.EOH {
			return true, nil
		}
		n := len(chart.Bars)
		if n == 0 {
			continue
		}
		for _, bar := range chart.Bars[:n-1] {
			c, ok := toCandle(bar)
			if !ok {
				continue
			}
			s.candles = append(s.candles, c)
		}
	}
	return false, nil
}

func (s *session) onShutdown(data json.RawMessage) error {
	var ev shutdownEvent
	if len(data) > 0 {
		_ = json.Unmarshal(data, &ev)
	}
	if ev.ReasonCode == "" {
		ev.ReasonCode = "Unknown"
	}
	return &ShutdownError{ReasonCode: ev.ReasonCode}
}

// closed maps a transport close to the session outcome.
func (s *session) closed() error {
	if s.state == stateStreaming {
		return ErrIncompleteHistory
	}
	return ErrClosedEarly
}

// result returns collected candles in ascending time order.
func (s *session) result() []models.Candle {
	out := make([]models.Candle, len(s.candles))
	copy(out, s.candles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Datetime.Before(out[j].Datetime)
	})
	return out
}

func toCandle(b barPayload) (models.Candle, bool) {
	ts, ok := util.ParseTime(b.Timestamp)
	if !ok {
		return models.Candle{}, false
	}
	up, down := round(b.UpVolume), round(b.DownVolume)
	return models.Candle{
		Datetime:   ts.UTC(),
		Open:       b.Open,
		High:       b.High,
		Low:        b.Low,
		Close:      b.Close,
		Volume:     up + down,
		UpVolume:   up,
		DownVolume: down,
		UpTicks:    round(b.UpTicks),
		DownTicks:  round(b.DownTicks),
	}, true
}

func round(v float64) int64 {
	return int64(math.Round(v))
}

func detail(d json.RawMessage) string {
	if len(d) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(d, &s); err == nil {
		return s
	}
	return string(d)
}
