// Package storage содержит хранилища состояния форм и истории созданных агентов.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/InQaaaaGit/supportgen/internal/config"
	"go.uber.org/zap"
)

// AgentBackend хранилище истории с проверкой соединения
type AgentBackend interface {
	AgentStorage
	DatabaseChecker
}

// FormBackend хранилище форм с именем реализации для логов
type FormBackend struct {
	FormStorage
	Kind string
}

// NewAgentStorage выбирает хранилище истории по конфигурации:
// DSN -> PostgreSQL, путь к файлу -> файл, иначе память.
func NewAgentStorage(cfg *config.Config, logger *zap.Logger) (AgentBackend, error) {
	switch {
	case cfg.DatabaseDSN != "":
		logger.Info("Using PostgreSQL agent storage")
		ps, err := NewPostgresStorage(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error creating postgres storage: %w", err)
		}
		return ps, nil
	case cfg.FileStoragePath != "":
		logger.Info("Using file agent storage", zap.String("path", cfg.FileStoragePath))
		fs, err := NewFileStorage(cfg.FileStoragePath, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating file storage: %w", err)
		}
		return fs, nil
	default:
		logger.Info("Using in-memory agent storage")
		return NewMemoryStorage(logger), nil
	}
}

// NewFormStorage выбирает хранилище форм: Redis при заданном адресе, иначе память
func NewFormStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (FormBackend, error) {
	if cfg.RedisAddress != "" {
		logger.Info("Using Redis form storage", zap.String("address", cfg.RedisAddress))
		rs, err := NewRedisFormStorage(ctx, RedisFormConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		})
		if err != nil {
			return FormBackend{}, fmt.Errorf("error creating redis form storage: %w", err)
		}
		return FormBackend{FormStorage: rs, Kind: "redis"}, nil
	}

	logger.Info("Using in-memory form storage", zap.Duration("ttl", cfg.SessionTTL))
	ms := NewMemoryFormStorage(cfg.SessionTTL, logger)
	go ms.RunSweeper(ctx, sweepInterval(cfg.SessionTTL))
	return FormBackend{FormStorage: ms, Kind: "memory"}, nil
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if interval := ttl / 4; interval > time.Second {
		return interval
	}
	return time.Second
}
