package odds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/paddock/internal/models"
)

// Stream message operations
const (
	OpSubscribe   = "subscribe"
	OpSnapshot    = "snapshot"
	OpSnapshotEnd = "snapshot_end"
	OpError       = "error"
)

// StreamMessage is one frame of the odds feed
type StreamMessage struct {
	Op      string             `json:"op"`
	Date    string             `json:"date,omitempty"`
	RaceID  string             `json:"race_id,omitempty"`
	Market  string             `json:"market,omitempty"`
	Odds    map[string]float64 `json:"odds,omitempty"`
	Message string             `json:"message,omitempty"`
}

// StreamSource subscribes to a websocket odds feed and collects the snapshot
type StreamSource struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
	logger  *logrus.Entry
}

// NewStreamSource creates a source for the feed at url. Reading stops at the
// snapshot_end message or after timeout.
func NewStreamSource(url string, timeout time.Duration, logger *logrus.Logger) *StreamSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StreamSource{
		url:     url,
		timeout: timeout,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:  logger.WithField("component", "odds_stream"),
	}
}

// Name returns the source name
func (s *StreamSource) Name() string {
	return "stream"
}

// Odds subscribes for the date and reads snapshots. A snapshot cut short by the
// timeout is returned as collected; a timeout before any snapshot is an error.
func (s *StreamSource) Odds(ctx context.Context, date time.Time) (map[string]models.OddsBook, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to odds stream: %w", err)
	}
	defer conn.Close()

	// Unblock ReadJSON when the context ends
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	day := date.Format(dateLayout)
	if err := conn.WriteJSON(StreamMessage{Op: OpSubscribe, Date: day}); err != nil {
		return nil, fmt.Errorf("failed to subscribe to odds stream: %w", err)
	}

	books := make(map[string]models.OddsBook)
	snapshots := 0
	for {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return s.partial(books, snapshots, day, ctx.Err())
			}
			return nil, fmt.Errorf("failed to read odds stream: %w", err)
		}

		switch msg.Op {
		case OpSnapshot:
			if msg.Date != "" && msg.Date != day {
				continue
			}
			if msg.RaceID == "" {
				return nil, models.NewValidationError("race_id_required", "odds snapshot without race id")
			}
			book, ok := books[msg.RaceID]
			if !ok {
				book = models.NewOddsBook(msg.RaceID)
			}
			if err := addMarket(&book, msg.Market, msg.Odds); err != nil {
				return nil, fmt.Errorf("race %s: %w", msg.RaceID, err)
			}
			books[msg.RaceID] = book
			snapshots++
		case OpSnapshotEnd:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return books, nil
		case OpError:
			return nil, fmt.Errorf("odds stream error: %s", msg.Message)
		}
	}
}

func (s *StreamSource) partial(books map[string]models.OddsBook, snapshots int, day string, cause error) (map[string]models.OddsBook, error) {
	if snapshots == 0 {
		if errors.Is(cause, context.DeadlineExceeded) {
			return nil, fmt.Errorf("no odds snapshot for %s before timeout: %w", day, cause)
		}
		return nil, cause
	}
	s.logger.WithFields(logrus.Fields{
		"date":      day,
		"snapshots": snapshots,
		"races":     len(books),
	}).Warn("Odds stream ended before snapshot_end, using partial snapshot")
	return books, nil
}
