package odds

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/paddock/internal/models"
)

const scanBatch = 100

// RedisClient is the subset of the go-redis client the source uses
type RedisClient interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisSource reads hashes keyed <prefix>:<date>:<race_id>:<market> whose fields are
// selection keys and values decimal odds
type RedisSource struct {
	client RedisClient
	prefix string
}

// NewRedisClient creates a go-redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisSource creates a source reading keys under prefix
func NewRedisSource(client RedisClient, prefix string) *RedisSource {
	if prefix == "" {
		prefix = "odds"
	}
	return &RedisSource{client: client, prefix: prefix}
}

// Name returns the source name
func (s *RedisSource) Name() string {
	return "redis"
}

// Ping checks the connection
func (s *RedisSource) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Odds scans the date's keys and builds one book per race
func (s *RedisSource) Odds(ctx context.Context, date time.Time) (map[string]models.OddsBook, error) {
	datePrefix := fmt.Sprintf("%s:%s:", s.prefix, date.Format(dateLayout))

	keys, err := s.scan(ctx, datePrefix+"*")
	if err != nil {
		return nil, err
	}

	books := make(map[string]models.OddsBook)
	for _, key := range keys {
		raceID, market, ok := splitKey(strings.TrimPrefix(key, datePrefix))
		if !ok {
			return nil, models.NewValidationError("malformed_odds", fmt.Sprintf("unexpected odds key %q", key))
		}

		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}

		selections := make(map[string]float64, len(fields))
		for selection, raw := range fields {
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, models.NewValidationError("malformed_odds",
					fmt.Sprintf("%s field %s: %q is not a number", key, selection, raw))
			}
			selections[selection] = price
		}

		book, found := books[raceID]
		if !found {
			book = models.NewOddsBook(raceID)
		}
		if err := addMarket(&book, market, selections); err != nil {
			return nil, fmt.Errorf("race %s: %w", raceID, err)
		}
		books[raceID] = book
	}
	return books, nil
}

func (s *RedisSource) scan(ctx context.Context, match string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	// SCAN may return a key more than once
	seen := make(map[string]struct{})
	for {
		batch, next, err := s.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan odds keys: %w", err)
		}
		for _, key := range batch {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
		if next == 0 {
			sort.Strings(keys)
			return keys, nil
		}
		cursor = next
	}
}

// splitKey splits "<race_id>:<market>"; race ids may contain colons
func splitKey(rest string) (raceID, market string, ok bool) {
	i := strings.LastIndex(rest, ":")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}
