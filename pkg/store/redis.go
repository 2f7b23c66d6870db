package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores each board as a hash under prefix+id and keeps the ids in a
// set under prefix+"index".
type Redis struct {
	client *redis.Client
	prefix string
}

// Hash fields of a stored board.
const (
	fieldTitle     = "title"
	fieldDigest    = "digest"
	fieldEncoding  = "encoding"
	fieldSize      = "size"
	fieldData      = "data"
	fieldUpdatedAt = "updated_at"
)

// DefaultRedisPrefix namespaces the keys written by the redis backend.
const DefaultRedisPrefix = "whiteboard:board:"

// NewRedis connects to the redis server at redisURL.
func NewRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisWithClient(client, prefix), nil
}

// NewRedisWithClient creates a backend from an existing client.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Name implements Backend.
func (s *Redis) Name() string { return "redis" }

func (s *Redis) key(id string) string { return s.prefix + id }

func (s *Redis) indexKey() string { return s.prefix + "index" }

// Load implements Backend.
func (s *Redis) Load(ctx context.Context, id string) (*Record, error) {
	m, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}
	r := &Record{
		ID:       id,
		Title:    m[fieldTitle],
		Digest:   m[fieldDigest],
		Encoding: Encoding(m[fieldEncoding]),
		Data:     []byte(m[fieldData]),
	}
	r.Size, r.UpdatedAt, err = parseMeta(m[fieldSize], m[fieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, id, err)
	}
	return r, nil
}

func parseMeta(size, updated string) (int, time.Time, error) {
	n, err := strconv.Atoi(size)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("size: %w", err)
	}
	ms, err := strconv.ParseInt(updated, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("updated_at: %w", err)
	}
	return n, time.UnixMilli(ms).UTC(), nil
}

// Stat implements Backend.
func (s *Redis) Stat(ctx context.Context, id string) (Summary, error) {
	vals, err := s.client.HMGet(ctx, s.key(id), fieldTitle, fieldDigest, fieldSize, fieldUpdatedAt).Result()
	if err != nil {
		return Summary{}, fmt.Errorf("stat board: %w", err)
	}
	return summaryFromFields(id, vals)
}

func summaryFromFields(id string, vals []any) (Summary, error) {
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}
	if vals[1] == nil {
		return Summary{}, ErrNotFound
	}
	size, updated, err := parseMeta(str(2), str(3))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %s: %w", ErrCorrupt, id, err)
	}
	return Summary{ID: id, Title: str(0), Digest: str(1), Size: size, UpdatedAt: updated}, nil
}

// Save implements Backend.
func (s *Redis) Save(ctx context.Context, r *Record) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key(r.ID),
			fieldTitle, r.Title,
			fieldDigest, r.Digest,
			fieldEncoding, string(r.Encoding),
			fieldSize, r.Size,
			fieldData, r.Data,
			fieldUpdatedAt, r.UpdatedAt.UnixMilli(),
		)
		pipe.SAdd(ctx, s.indexKey(), r.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}

// Remove implements Backend.
func (s *Redis) Remove(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// Scan implements Backend. Index entries whose hash has gone are skipped.
func (s *Redis) Scan(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	cmds := make([]*redis.SliceCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HMGet(ctx, s.key(id), fieldTitle, fieldDigest, fieldSize, fieldUpdatedAt)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	out := make([]Summary, 0, len(ids))
	for i, id := range ids {
		sum, err := summaryFromFields(id, cmds[i].Val())
		if err != nil {
			continue
		}
		out = append(out, sum)
	}
	return out, nil
}

// Ping checks that redis is reachable.
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Backend.
func (s *Redis) Close() error { return s.client.Close() }

var _ Backend = (*Redis)(nil)
