package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deppfellow/patient-api/internal/model/patient"
)

const (
	// redisUpdateRetries bounds optimistic retries when a concurrent writer
	// touches the hash during an Update. Each failed attempt means another
	// writer committed, so N concurrent updates all land within N attempts.
	redisUpdateRetries = 32

	// redisRetryBackoff is multiplied by the attempt number between retries.
	redisRetryBackoff = time.Millisecond
)

// RedisStore keeps each record as a JSON value in one hash, field = id:
//
//	HSET patients P001 '{"name":"...","bmi":22.86,"verdict":"Normal"}'
//
// Concurrency:
//   - Create relies on HSETNX, so two creates of one id cannot both win
//   - Update is optimistic (WATCH/MULTI/EXEC on the whole hash) and
//     returns ErrConflict when it keeps losing to other writers
//   - Delete is a single HDEL
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore returns a store using the hash at key.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func decodeRecord(id, raw string) (patient.Record, error) {
	var rec patient.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("decoding patient %s: %w", id, err)
	}
	return rec, nil
}

func (s *RedisStore) All(ctx context.Context) ([]patient.Entry, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", s.key, err)
	}

	entries := make([]patient.Entry, 0, len(raw))
	for id, value := range raw {
		rec, err := decodeRecord(id, value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, patient.Entry{ID: id, Record: rec})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return entries, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*patient.Record, error) {
	raw, err := s.rdb.HGet(ctx, s.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET %s %s: %w", s.key, id, err)
	}

	rec, err := decodeRecord(id, raw)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) Create(ctx context.Context, id string, rec patient.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding patient %s: %w", id, err)
	}

	created, err := s.rdb.HSetNX(ctx, s.key, id, data).Result()
	if err != nil {
		return fmt.Errorf("redis HSETNX %s %s: %w", s.key, id, err)
	}
	if !created {
		return ErrAlreadyExists
	}
	return nil
}

// Update watches the hash and retries if another client writes it
// between the read and the MULTI/EXEC.
func (s *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, s.key, id).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		current, err := decodeRecord(id, raw)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encoding patient %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, id, data)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= redisUpdateRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, s.key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * redisRetryBackoff):
		}
	}

	return ErrConflict
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := s.rdb.HDel(ctx, s.key, id).Result()
	if err != nil {
		return fmt.Errorf("redis HDEL %s %s: %w", s.key, id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
