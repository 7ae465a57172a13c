package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
	goredis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "reportpipe:session:"

// RedisOpts configures a RedisStore.
type RedisOpts struct {
	Addr     string
	Password string
	DB       int
	// IdleTTL, when positive, is set as the key expiry on every Put.
	IdleTTL   time.Duration
	KeyPrefix string
}

// RedisOption is a functional option for RedisStore.
type RedisOption func(*RedisOpts)

// WithRedisAddr sets the server address.
func WithRedisAddr(addr string) RedisOption {
	return func(o *RedisOpts) { o.Addr = addr }
}

// WithRedisAuth sets the password and database number.
func WithRedisAuth(password string, db int) RedisOption {
	return func(o *RedisOpts) {
		o.Password = password
		o.DB = db
	}
}

// WithRedisIdleTTL lets Redis expire sessions that have not been written for ttl.
func WithRedisIdleTTL(ttl time.Duration) RedisOption {
	return func(o *RedisOpts) { o.IdleTTL = ttl }
}

// WithRedisKeyPrefix overrides the key namespace.
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(o *RedisOpts) { o.KeyPrefix = prefix }
}

// RedisStore keeps sessions in Redis as one JSON document per reporter, so
// in-progress reports survive a restart.
type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, opts ...RedisOption) (*RedisStore, error) {
	cfg := RedisOpts{Addr: "localhost:6379", KeyPrefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("RedisStore ping failed", "addr", cfg.Addr, "error", err)
		if cerr := rdb.Close(); cerr != nil {
			slog.Warn("RedisStore close after failed ping", "error", cerr)
		}
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	slog.Info("RedisStore connected", "addr", cfg.Addr, "db", cfg.DB, "idle_ttl", cfg.IdleTTL)

	return &RedisStore{client: rdb, ttl: cfg.IdleTTL, prefix: cfg.KeyPrefix}, nil
}

func (s *RedisStore) key(reporterID string) string {
	return s.prefix + reporterID
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, reporterID string) (*models.Form, error) {
	data, err := s.client.Get(ctx, s.key(reporterID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var form models.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &form, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, reporterID string, form *models.Form) error {
	data, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(reporterID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, reporterID string) error {
	if err := s.client.Del(ctx, s.key(reporterID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
