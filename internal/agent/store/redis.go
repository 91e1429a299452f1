package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	errx "github.com/resistingdestiny/memedici/internal/core/error"
	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

// RedisRecordStore persists documents as JSON strings under kind-prefixed
// keys, with a set per kind acting as the id index.
type RedisRecordStore struct {
	rdb redis.Cmdable
}

func NewRedisRecordStore(rdb redis.Cmdable) *RedisRecordStore {
	return &RedisRecordStore{rdb: rdb}
}

func (s *RedisRecordStore) docKey(kind, id string) string {
	return fmt.Sprintf("%s:%s", kind, id)
}

func (s *RedisRecordStore) indexKey(kind string) string {
	return fmt.Sprintf("%s:index", kind)
}

func (s *RedisRecordStore) Get(ctx context.Context, kind, id string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, s.docKey(kind, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		logx.Error().Err(err).Str("kind", kind).Str("id", id).Msg("failed to load document from redis")
		return nil, errx.WrapRedis(err)
	}
	return raw, nil
}

func (s *RedisRecordStore) Put(ctx context.Context, kind, id string, doc []byte) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.docKey(kind, id), doc, 0)
	pipe.SAdd(ctx, s.indexKey(kind), id)
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("kind", kind).Str("id", id).Msg("failed to store document in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisRecordStore) Delete(ctx context.Context, kind, id string) (bool, error) {
	n, err := s.rdb.Del(ctx, s.docKey(kind, id)).Result()
	if err != nil {
		logx.Error().Err(err).Str("kind", kind).Str("id", id).Msg("failed to delete document from redis")
		return false, errx.WrapRedis(err)
	}
	if err := s.rdb.SRem(ctx, s.indexKey(kind), id).Err(); err != nil {
		logx.Error().Err(err).Str("kind", kind).Str("id", id).Msg("failed to remove document from index")
		return n > 0, errx.WrapRedis(err)
	}
	return n > 0, nil
}

func (s *RedisRecordStore) List(ctx context.Context, kind string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, s.indexKey(kind)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		logx.Error().Err(err).Str("kind", kind).Msg("failed to list documents from redis")
		return nil, errx.WrapRedis(err)
	}
	return ids, nil
}

var _ RecordStore = (*RedisRecordStore)(nil)
