package journal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/redis/go-redis/v9"
)

const (
	redisEntryPrefix = "journal:entry:"
	redisIndexKey    = "journal:entries"

	fieldFilePath   = "file_path"
	fieldData       = "data"
	fieldCreatedAt  = "created_at"
	fieldMetaPrefix = "meta:"
)

// RedisStore keeps each entry in a hash and the write order in a list.
type RedisStore struct {
	objectFactory
	client *redis.Client
}

// NewRedisStore connects using a redis:// URL.
func NewRedisStore(connectionString string, fs billy.Filesystem) (*RedisStore, error) {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis connection string: %w", err)
	}

	return &RedisStore{
		objectFactory: newObjectFactory(fs),
		client:        redis.NewClient(opts),
	}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Write(ctx context.Context, obj *Object) error {
	entry, err := s.prepare(obj)
	if err != nil {
		return err
	}

	fields := map[string]any{
		fieldFilePath:  entry.FilePath,
		fieldData:      entry.Data,
		fieldCreatedAt: strconv.FormatInt(entry.Timestamp.UnixNano(), 10),
	}
	for key, value := range entry.Metadata {
		fields[fieldMetaPrefix+key] = value
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisEntryPrefix+entry.ID, fields)
		pipe.RPush(ctx, redisIndexKey, entry.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write journal entry %s: %w", entry.ID, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	ids, err := s.client.LRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Entry, error) {
	fields, err := s.client.HGetAll(ctx, redisEntryPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e := &Entry{
		ID:       id,
		FilePath: fields[fieldFilePath],
		Data:     []byte(fields[fieldData]),
		Metadata: make(map[string]string),
	}
	if createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		e.Timestamp = time.Unix(0, createdAt).UTC()
	}
	for key, value := range fields {
		if name, ok := strings.CutPrefix(key, fieldMetaPrefix); ok {
			e.Metadata[name] = value
		}
	}
	return e, nil
}
