package odds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/paddock/internal/config"
	"github.com/yourusername/paddock/internal/httpclient"
	"github.com/yourusername/paddock/internal/logger"
	"github.com/yourusername/paddock/internal/models"
)

var raceDay = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

const dayDocument = `{
	"date": "2024-06-01",
	"races": [
		{"race_id": "R1", "markets": {
			"WIN": {"1": 2.5, "2": 4.0},
			"exacta": {"2-1": 9.0},
			"TRIFECTA": {"1-2-3": 30.0}
		}},
		{"race_id": "R2", "markets": {"PLACE": {"4": 1.4}}}
	]
}`

func TestDocumentBooks(t *testing.T) {
	doc := Document{
		Date: "2024-06-01",
		Races: []RaceOdds{
			{RaceID: "R1", Markets: map[string]map[string]float64{
				"WIN":    {"1": 2.5, "2": 0.5},
				"EXACTA": {"2-1": 9.0},
			}},
		},
	}

	books, err := doc.Books(raceDay)
	require.NoError(t, err)
	require.Contains(t, books, "R1")

	book := books["R1"]
	assert.Equal(t, 2.5, book.Win[1])
	assert.Equal(t, 0.5, book.Win[2], "odds below 1 are kept for the allocator to reject")
	assert.Equal(t, 9.0, book.Exacta[models.NewPair(1, 2)])
	assert.Equal(t, 3, book.Len())
}

func TestDocumentBooksRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"date mismatch", Document{Date: "2024-06-02"}},
		{"missing race id", Document{Races: []RaceOdds{{}}}},
		{"unknown market", Document{Races: []RaceOdds{{RaceID: "R1", Markets: map[string]map[string]float64{"QUINELLA": {"1": 2}}}}}},
		{"bad win key", Document{Races: []RaceOdds{{RaceID: "R1", Markets: map[string]map[string]float64{"WIN": {"x": 2}}}}}},
		{"exacta repeats runner", Document{Races: []RaceOdds{{RaceID: "R1", Markets: map[string]map[string]float64{"EXACTA": {"1-1": 2}}}}}},
		{"trifecta too short", Document{Races: []RaceOdds{{RaceID: "R1", Markets: map[string]map[string]float64{"TRIFECTA": {"1-2": 2}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.doc.Books(raceDay)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-06-01.json"), []byte(dayDocument), 0o644))

	books, err := NewFileSource(dir).Odds(context.Background(), raceDay)
	require.NoError(t, err)
	assert.Len(t, books, 2)
	assert.Equal(t, 1.4, books["R2"].Place[4])
	assert.Equal(t, 30.0, books["R1"].Trifecta[models.Triple{First: 1, Second: 2, Third: 3}])

	// a single file path is read regardless of the date
	single := filepath.Join(dir, "2024-06-01.json")
	books, err = NewFileSource(single).Odds(context.Background(), raceDay)
	require.NoError(t, err)
	assert.Len(t, books, 2)

	_, err = NewFileSource(dir).Odds(context.Background(), raceDay.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/odds", r.URL.Path)
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("date"))
		w.Write([]byte(dayDocument))
	}))
	defer srv.Close()

	cfg := httpclient.DefaultConfig()
	cfg.RateLimit = 1000
	books, err := NewHTTPSource(httpclient.New(cfg, nil), srv.URL).Odds(context.Background(), raceDay)
	require.NoError(t, err)
	assert.Equal(t, 4.0, books["R1"].Win[2])
}

type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	args := m.Called(cursor, match)
	return redis.NewScanCmdResult(args.Get(0).([]string), args.Get(1).(uint64), args.Error(2))
}

func (m *mockRedis) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	args := m.Called(key)
	return redis.NewMapStringStringResult(args.Get(0).(map[string]string), args.Error(1))
}

func (m *mockRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func TestRedisSource(t *testing.T) {
	client := new(mockRedis)
	match := "odds:2024-06-01:*"
	client.On("Scan", uint64(0), match).Return([]string{"odds:2024-06-01:R1:WIN"}, uint64(7), nil)
	client.On("Scan", uint64(7), match).Return([]string{"odds:2024-06-01:R1:WIN", "odds:2024-06-01:meet:3:EXACTA"}, uint64(0), nil)
	client.On("HGetAll", "odds:2024-06-01:R1:WIN").Return(map[string]string{"1": "2.5", "2": "4"}, nil).Once()
	client.On("HGetAll", "odds:2024-06-01:meet:3:EXACTA").Return(map[string]string{"1-2": "11.5"}, nil).Once()

	src := NewRedisSource(client, "")
	require.NoError(t, src.Ping(context.Background()))

	books, err := src.Odds(context.Background(), raceDay)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, 4.0, books["R1"].Win[2])
	assert.Equal(t, 11.5, books["meet:3"].Exacta[models.NewPair(1, 2)])
	client.AssertExpectations(t)
}

func TestRedisSourceRejectsNonNumericOdds(t *testing.T) {
	client := new(mockRedis)
	client.On("Scan", uint64(0), "live:2024-06-01:*").Return([]string{"live:2024-06-01:R1:WIN"}, uint64(0), nil)
	client.On("HGetAll", "live:2024-06-01:R1:WIN").Return(map[string]string{"1": "evens"}, nil)

	_, err := NewRedisSource(client, "live").Odds(context.Background(), raceDay)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSplitKey(t *testing.T) {
	raceID, market, ok := splitKey("R1:WIN")
	assert.True(t, ok)
	assert.Equal(t, "R1", raceID)
	assert.Equal(t, "WIN", market)

	for _, bad := range []string{"R1", ":WIN", "R1:"} {
		_, _, ok := splitKey(bad)
		assert.False(t, ok, bad)
	}
}

// feedServer replays frames after the subscribe message, then holds the
// connection open until the client leaves
func feedServer(t *testing.T, frames []StreamMessage) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub StreamMessage
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		assert.Equal(t, OpSubscribe, sub.Op)
		assert.Equal(t, "2024-06-01", sub.Date)

		for _, frame := range frames {
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamSourceReadsUntilSnapshotEnd(t *testing.T) {
	srv := feedServer(t, []StreamMessage{
		{Op: OpSnapshot, Date: "2024-06-01", RaceID: "R1", Market: "WIN", Odds: map[string]float64{"1": 2.0, "2": 3.0}},
		{Op: OpSnapshot, Date: "2024-05-31", RaceID: "R0", Market: "WIN", Odds: map[string]float64{"1": 2.0}},
		{Op: OpSnapshot, RaceID: "R1", Market: "EXACTA", Odds: map[string]float64{"1-2": 7.0}},
		{Op: OpSnapshotEnd},
	})
	defer srv.Close()

	src := NewStreamSource(wsURL(srv), 5*time.Second, logger.Discard())
	books, err := src.Odds(context.Background(), raceDay)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 3.0, books["R1"].Win[2])
	assert.Equal(t, 7.0, books["R1"].Exacta[models.NewPair(1, 2)])
}

func TestStreamSourceTimeout(t *testing.T) {
	partial := feedServer(t, []StreamMessage{
		{Op: OpSnapshot, RaceID: "R1", Market: "WIN", Odds: map[string]float64{"1": 2.0}},
	})
	defer partial.Close()

	books, err := NewStreamSource(wsURL(partial), 200*time.Millisecond, logger.Discard()).Odds(context.Background(), raceDay)
	require.NoError(t, err)
	assert.Equal(t, 2.0, books["R1"].Win[1])

	silent := feedServer(t, nil)
	defer silent.Close()

	_, err = NewStreamSource(wsURL(silent), 200*time.Millisecond, logger.Discard()).Odds(context.Background(), raceDay)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStreamSourceErrorFrame(t *testing.T) {
	srv := feedServer(t, []StreamMessage{{Op: OpError, Message: "unknown date"}})
	defer srv.Close()

	_, err := NewStreamSource(wsURL(srv), 5*time.Second, logger.Discard()).Odds(context.Background(), raceDay)
	assert.ErrorContains(t, err, "unknown date")
}

func TestNewSource(t *testing.T) {
	cfg := &config.Config{}
	for _, name := range []string{"file", "http", "redis", "stream"} {
		cfg.Odds.Source = name
		src, err := NewSource(cfg, logger.Discard())
		require.NoError(t, err)
		assert.Equal(t, name, src.Name())
	}

	cfg.Odds.Source = "carrier-pigeon"
	_, err := NewSource(cfg, nil)
	assert.Error(t, err)
}
