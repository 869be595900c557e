package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/InQaaaaGit/supportgen/internal/form"
	"github.com/redis/go-redis/v9"
)

const defaultFormKeyPrefix = "supportgen:form:"

// RedisFormConfig параметры подключения хранилища форм к Redis
type RedisFormConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisFormStorage реализует FormStorage поверх Redis.
// Форма хранится как JSON со сроком жизни TTL.
type RedisFormStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisFormStorage подключается к Redis и проверяет соединение
func NewRedisFormStorage(ctx context.Context, cfg RedisFormConfig) (*RedisFormStorage, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection check error: %w", err)
	}
	return newRedisFormStorage(client, cfg), nil
}

func newRedisFormStorage(client *redis.Client, cfg RedisFormConfig) *RedisFormStorage {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultFormKeyPrefix
	}
	return &RedisFormStorage{
		client: client,
		prefix: prefix,
		ttl:    cfg.TTL,
	}
}

// Load читает форму сессии и продлевает ее срок жизни
func (s *RedisFormStorage) Load(ctx context.Context, sessionID string) (*form.Form, error) {
	key := s.key(sessionID)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("redis get form error: %w", err)
	}

	f, err := decodeForm(data)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("redis expire form error: %w", err)
		}
	}
	return f, nil
}

// Save записывает форму сессии
func (s *RedisFormStorage) Save(ctx context.Context, sessionID string, f *form.Form) error {
	data, err := encodeForm(f)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set form error: %w", err)
	}
	return nil
}

// Delete удаляет форму сессии
func (s *RedisFormStorage) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete form error: %w", err)
	}
	return nil
}

// CheckConnection проверяет соединение с Redis
func (s *RedisFormStorage) CheckConnection(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает клиент Redis
func (s *RedisFormStorage) Close() error {
	return s.client.Close()
}

func (s *RedisFormStorage) key(sessionID string) string {
	return s.prefix + sessionID
}

func encodeForm(f *form.Form) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("error marshaling form: %w", err)
	}
	return data, nil
}

func decodeForm(data []byte) (*form.Form, error) {
	f := form.New()
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("error decoding form: %w", err)
	}
	if f.URLs == nil {
		f.URLs = []string{}
	}
	return f, nil
}
