package sietch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is a key/value copy of rows kept in front of a Store
type Cache[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (*T, error)
	Set(ctx context.Context, item *T) error
	Invalidate(ctx context.Context, ids ...ID) error
}

// RedisConnector caches rows as JSON documents with a TTL.
// Get returns ErrItemNotFound on a miss.
type RedisConnector[T any, ID comparable] struct {
	client     *redis.Client
	defaultTTL time.Duration
	getID      func(*T) ID
	keyFunc    func(ID) string
}

func NewRedisConnector[T any, ID comparable](client *redis.Client, defaultTTL time.Duration, getID func(*T) ID, keyFunc func(ID) string) *RedisConnector[T, ID] {
	return &RedisConnector[T, ID]{client, defaultTTL, getID, keyFunc}
}

// Set stores item, replacing any previous copy
func (r *RedisConnector[T, ID]) Set(ctx context.Context, item *T) error {
	if item == nil {
		return errors.New("item cannot be nil")
	}
	key := r.keyFunc(r.getID(item))
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.defaultTTL).Err()
}

func (r *RedisConnector[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	key := r.keyFunc(id)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}

	return &item, nil
}

// SetMany stores items in one pipeline
func (r *RedisConnector[T, ID]) SetMany(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}

	// marshal everything before touching redis
	type command struct {
		key  string
		data []byte
	}
	commands := make([]command, 0, len(items))
	for i := range items {
		data, err := json.Marshal(items[i])
		if err != nil {
			return err
		}
		commands = append(commands, command{key: r.keyFunc(r.getID(&items[i])), data: data})
	}

	pipe := r.client.Pipeline()
	for _, cmd := range commands {
		pipe.Set(ctx, cmd.key, cmd.data, r.defaultTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate removes the cached copies of ids. Missing keys are not an error.
func (r *RedisConnector[T, ID]) Invalidate(ctx context.Context, ids ...ID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keyFunc(id)
	}
	return r.client.Del(ctx, keys...).Err()
}

// Exists checks if an entity with the given ID is cached
func (r *RedisConnector[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	key := r.keyFunc(id)
	result, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
