package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

const redisKeyPrefix = "mindmap:"

// RedisStore keeps the document as a single string value in Redis
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to the server at redisURL and checks the connection.
func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	if redisURL == "" {
		return nil, model.NewStorageError("open", errors.New("redis url is required"))
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, model.NewStorageError("open", errors.Wrap(err, "failed to parse redis url"))
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, model.NewStorageError("open", errors.Wrap(err, "failed to connect to redis"))
	}

	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: redisKeyPrefix + key}, nil
}

func (r *RedisStore) Load(ctx context.Context) (*model.Document, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewStorageError("load", errors.Wrap(err, "failed to get document"))
	}
	return decodeLoaded(data)
}

// Save replaces the value with a single SET, which Redis applies atomically.
func (r *RedisStore) Save(ctx context.Context, doc *model.Document) error {
	data, restore, err := encodeForSave(doc)
	if err != nil {
		return model.NewStorageError("save", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		restore()
		return model.NewStorageError("save", errors.Wrap(err, "failed to set document"))
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return model.NewStorageError("clear", errors.Wrap(err, "failed to delete document"))
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
