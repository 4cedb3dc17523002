// Package redisstore provides the Redis-backed session store for multi
// instance deployments. Stage advancement runs inside a WATCH transaction so
// concurrent events for the same owner resolve to exactly one winner.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

const (
	// Redis hash field names for wizard session keys.
	fieldStage      = "stage"
	fieldFieldsJSON = "fields_json"
	fieldStartedAt  = "started_at"
	fieldUpdatedAt  = "updated_at"

	keyPrefix = "wizard:"

	scanBatchSize = 100
)

type Store struct {
	rdb   *goredis.Client
	clock clockwork.Clock
}

func New(rdb *goredis.Client, clock clockwork.Clock) *Store {
	return &Store{rdb: rdb, clock: clock}
}

// NewClient creates a go-redis client from a URL (e.g., "redis://localhost:6379")
// and verifies the connection.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func (s *Store) Start(ctx context.Context, ownerID string) (*domain.Session, error) {
	now := s.clock.Now()
	key := sessionKey(ownerID)

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldStage:      strconv.Itoa(int(domain.StageBasicInfo)),
		fieldFieldsJSON: "{}",
		fieldStartedAt:  strconv.FormatInt(now.UnixMilli(), 10),
		fieldUpdatedAt:  strconv.FormatInt(now.UnixMilli(), 10),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	return &domain.Session{
		OwnerID:   ownerID,
		Stage:     domain.StageBasicInfo,
		Fields:    make(map[string]string),
		StartedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Store) Get(ctx context.Context, ownerID string) (*domain.Session, error) {
	values, err := s.rdb.HGetAll(ctx, sessionKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(values) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return parseSession(ownerID, values)
}

// Advance merges delta and moves the session to next inside a WATCH
// transaction keyed on the session. A concurrent write aborts the
// transaction; stage mismatch and aborts both surface as ErrStaleInteraction.
func (s *Store) Advance(ctx context.Context, ownerID string, expect domain.Stage, delta map[string]string, next domain.Stage) (*domain.Session, error) {
	key := sessionKey(ownerID)
	var result *domain.Session

	txn := func(tx *goredis.Tx) error {
		values, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}
		if len(values) == 0 {
			return domain.ErrSessionNotFound
		}

		session, err := parseSession(ownerID, values)
		if err != nil {
			return err
		}
		if session.Stage != expect {
			return domain.ErrStaleInteraction
		}

		maps.Copy(session.Fields, delta)
		session.Stage = next
		session.UpdatedAt = s.clock.Now()

		fieldsJSON, err := json.Marshal(session.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]any{
				fieldStage:      strconv.Itoa(int(next)),
				fieldFieldsJSON: string(fieldsJSON),
				fieldUpdatedAt:  strconv.FormatInt(session.UpdatedAt.UnixMilli(), 10),
			})
			return nil
		})
		if err != nil {
			return err
		}

		result = session
		return nil
	}

	if err := s.rdb.Watch(ctx, txn, key); err != nil {
		if errors.Is(err, goredis.TxFailedErr) {
			return nil, domain.ErrStaleInteraction
		}
		return nil, err
	}
	return result, nil
}

func (s *Store) Remove(ctx context.Context, ownerID string) error {
	if err := s.rdb.Del(ctx, sessionKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// EvictIdle scans all wizard keys and deletes those idle longer than maxIdle.
func (s *Store) EvictIdle(ctx context.Context, maxIdle time.Duration) ([]string, error) {
	now := s.clock.Now()
	var evicted []string
	var cursor uint64

	for {
		select {
		case <-ctx.Done():
			return evicted, fmt.Errorf("scan cancelled after evicting %d sessions: %w", len(evicted), ctx.Err())
		default:
		}

		keys, nextCursor, err := s.rdb.Scan(ctx, cursor, keyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		for _, key := range keys {
			ownerID, idle := s.checkIdle(ctx, key, now, maxIdle)
			if !idle {
				continue
			}
			if err := s.rdb.Del(ctx, key).Err(); err != nil {
				slog.Error("EvictIdle: failed to delete key", "key", key, "error", err)
				continue
			}
			evicted = append(evicted, ownerID)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return evicted, nil
}

func (s *Store) checkIdle(ctx context.Context, key string, now time.Time, maxIdle time.Duration) (string, bool) {
	val, err := s.rdb.HGet(ctx, key, fieldUpdatedAt).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Error("EvictIdle: failed to read key", "key", key, "error", err)
		}
		return "", false
	}

	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return "", false
	}

	if now.Sub(time.UnixMilli(ts)) <= maxIdle {
		return "", false
	}

	return strings.TrimPrefix(key, keyPrefix), true
}

func parseSession(ownerID string, values map[string]string) (*domain.Session, error) {
	stage, err := strconv.Atoi(values[fieldStage])
	if err != nil {
		return nil, fmt.Errorf("corrupt stage for %s: %w", ownerID, err)
	}

	fields := make(map[string]string)
	if raw := values[fieldFieldsJSON]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("corrupt fields for %s: %w", ownerID, err)
		}
	}

	startedAt, _ := strconv.ParseInt(values[fieldStartedAt], 10, 64)
	updatedAt, _ := strconv.ParseInt(values[fieldUpdatedAt], 10, 64)

	return &domain.Session{
		OwnerID:   ownerID,
		Stage:     domain.Stage(stage),
		Fields:    fields,
		StartedAt: time.UnixMilli(startedAt),
		UpdatedAt: time.UnixMilli(updatedAt),
	}, nil
}

func sessionKey(ownerID string) string {
	return keyPrefix + ownerID
}
