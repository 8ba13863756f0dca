// Package redis provides a transcript.Store backed by Redis lists, so
// transcripts survive restarts of the serve command.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/papercomputeco/tracememory/pkg/llm"
)

// KeyPrefix namespaces transcript keys.
const KeyPrefix = "transcript:"

// Config configures the Redis transcript store.
type Config struct {
	// URL is a redis:// connection string.
	URL string

	// TTL expires idle transcripts. Zero keeps them forever.
	TTL time.Duration
}

// Store implements transcript.Store on top of a Redis client.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewStore parses the URL, connects and pings the server.
func NewStore(ctx context.Context, c Config) (*Store, error) {
	if c.URL == "" {
		return nil, errors.New("redis url must not be empty")
	}

	opts, err := goredis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Store{client: client, ttl: c.TTL}, nil
}

// Key returns the list key for a session.
func Key(sessionID string) string {
	return KeyPrefix + sessionID
}

func encode(msg llm.Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encoding message: %w", err)
	}
	return string(data), nil
}

func decode(items []string) ([]llm.Message, error) {
	msgs := make([]llm.Message, 0, len(items))
	for _, item := range items {
		var msg llm.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decoding message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *Store) Append(ctx context.Context, sessionID string, msg llm.Message) error {
	item, err := encode(msg)
	if err != nil {
		return err
	}

	key := Key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, item)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending transcript: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, sessionID string) ([]llm.Message, error) {
	items, err := s.client.LRange(ctx, Key(sessionID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return []llm.Message{}, nil
		}
		return nil, fmt.Errorf("loading transcript: %w", err)
	}
	return decode(items)
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clearing transcript: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
