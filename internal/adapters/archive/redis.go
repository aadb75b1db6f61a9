// Package archive keeps closed transcript paragraphs and their summaries in
// Redis.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/Moderator/internal/app/transcribe"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type RedisArchive struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisArchive connects and pings the server.
func NewRedisArchive(ctx context.Context, addr, password string, ttl time.Duration) (*RedisArchive, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Info().Str("module", "archive").Str("addr", addr).Msg("connected to redis")
	return NewRedisArchiveFromClient(client, ttl), nil
}

func NewRedisArchiveFromClient(client *redis.Client, ttl time.Duration) *RedisArchive {
	return &RedisArchive{client: client, ttl: ttl}
}

func key(room domain.RoomID) string {
	return "room:" + string(room) + ":paragraphs"
}

// Store appends the paragraph to the room's list and refreshes its expiry.
func (a *RedisArchive) Store(ctx context.Context, room domain.RoomID, p transcribe.Paragraph, s transcribe.Summary) error {
	data, err := json.Marshal(transcribe.Entry{
		Speaker:    p.Speaker,
		Epoch:      p.Epoch,
		Text:       p.Text,
		Summary:    s.Text,
		Confidence: s.Confidence,
		StoredAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	k := key(room)
	_, err = a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, k, data)
		if a.ttl > 0 {
			pipe.Expire(ctx, k, a.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive paragraph: %w", err)
	}
	return nil
}

// History returns every archived paragraph of room in order.
func (a *RedisArchive) History(ctx context.Context, room domain.RoomID) ([]transcribe.Entry, error) {
	raw, err := a.client.LRange(ctx, key(room), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read paragraphs: %w", err)
	}
	out := make([]transcribe.Entry, 0, len(raw))
	for _, item := range raw {
		var r transcribe.Entry
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			log.Warn().Err(err).Str("module", "archive").Str("room", string(room)).Msg("skip malformed record")
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (a *RedisArchive) Close() error {
	return a.client.Close()
}
