package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	errx "github.com/resistingdestiny/memedici/internal/core/error"
	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

// MemoryStore persists conversation history. Threads are segregated per
// agent and per thread id; two threads never see each other's messages.
type MemoryStore interface {
	Append(ctx context.Context, agentID, threadID string, messages ...*schema.Message) error
	History(ctx context.Context, agentID, threadID string) ([]*schema.Message, error)
	Reset(ctx context.Context, agentID, threadID string) error
}

// RedisMemory stores each thread as a Redis list of JSON messages. The TTL
// is refreshed on every append so active threads never expire mid-session.
type RedisMemory struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisMemory(rdb redis.Cmdable, ttl time.Duration) *RedisMemory {
	return &RedisMemory{rdb: rdb, ttl: ttl}
}

func (r *RedisMemory) threadKey(agentID, threadID string) string {
	return fmt.Sprintf("memory:%s:%s:messages", agentID, threadID)
}

func (r *RedisMemory) Append(ctx context.Context, agentID, threadID string, messages ...*schema.Message) error {
	key := r.threadKey(agentID, threadID)
	for _, msg := range messages {
		b, err := json.Marshal(msg)
		if err != nil {
			logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to marshal message")
			return fmt.Errorf("marshal message: %w", err)
		}
		if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
			return errx.WrapRedis(err)
		}
	}
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on thread key")
		}
	}
	return nil
}

func (r *RedisMemory) History(ctx context.Context, agentID, threadID string) ([]*schema.Message, error) {
	key := r.threadKey(agentID, threadID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []*schema.Message{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load thread history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("thread_id", threadID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

func (r *RedisMemory) Reset(ctx context.Context, agentID, threadID string) error {
	key := r.threadKey(agentID, threadID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete thread history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ MemoryStore = (*RedisMemory)(nil)

// InProcMemory keeps thread history in process memory. Used when no Redis
// is configured and throughout the test suite.
type InProcMemory struct {
	mu      sync.RWMutex
	threads map[string][]*schema.Message
}

func NewInProcMemory() *InProcMemory {
	return &InProcMemory{threads: make(map[string][]*schema.Message)}
}

func (m *InProcMemory) key(agentID, threadID string) string {
	return agentID + ":" + threadID
}

func (m *InProcMemory) Append(ctx context.Context, agentID, threadID string, messages ...*schema.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(agentID, threadID)
	m.threads[k] = append(m.threads[k], messages...)
	return nil
}

func (m *InProcMemory) History(ctx context.Context, agentID, threadID string) ([]*schema.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.threads[m.key(agentID, threadID)]
	out := make([]*schema.Message, len(src))
	copy(out, src)
	return out, nil
}

func (m *InProcMemory) Reset(ctx context.Context, agentID, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.threads, m.key(agentID, threadID))
	return nil
}

var _ MemoryStore = (*InProcMemory)(nil)

// trimTail returns at most maxTurns trailing messages as a fresh slice.
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
