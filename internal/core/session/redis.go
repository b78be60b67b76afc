package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"supplysphere/internal/domain"
)

type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	ttl := s.TTL(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	userKey := UserSetPrefix + s.User.ID
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, KeyPrefix+s.ID, b, ttl)
		p.SAdd(ctx, userKey, s.ID)
		// TTL 统一，最新会话决定索引寿命
		p.Expire(ctx, userKey, ttl)
		return nil
	})
	return err
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	b, err := r.rdb.Get(ctx, KeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, KeyPrefix+id)
		p.SRem(ctx, UserSetPrefix+s.User.ID, id)
		return nil
	})
	return err
}

func (r *RedisStore) DeleteUser(ctx context.Context, userID string) (int, error) {
	userKey := UserSetPrefix + userID
	ids, err := r.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, KeyPrefix+id)
	}
	n, err := r.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, err
	}
	if err := r.rdb.Del(ctx, userKey).Err(); err != nil {
		return int(n), err
	}
	return int(n), nil
}

func (r *RedisStore) Count(ctx context.Context) (int64, error) {
	var n int64
	iter := r.rdb.Scan(ctx, 0, KeyPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}
