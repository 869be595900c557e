package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/InQaaaaGit/supportgen/internal/models"
	"github.com/lib/pq"
)

// PostgresStorage реализует AgentStorage с использованием PostgreSQL
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage создает новый экземпляр PostgresStorage
func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	// Подключение к базе данных
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	// Проверка соединения
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Failed to close DB connection after ping error: %v", closeErr)
		}
		return nil, fmt.Errorf("database connection check error: %w", err)
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS agents (` +
		`id UUID PRIMARY KEY,` +
		`session_id VARCHAR(64) NOT NULL,` +
		`urls TEXT[] NOT NULL,` +
		`raw_phone_number TEXT NOT NULL,` +
		`phone_number TEXT NOT NULL,` +
		`created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()` +
		`)`
	if _, err = db.ExecContext(ctx, createTableSQL); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Failed to close DB connection after table creation error: %v", closeErr)
		}
		return nil, fmt.Errorf("table creation error: %w", err)
	}

	createIndexSQL := `CREATE INDEX IF NOT EXISTS agents_session_idx ON agents (session_id, created_at)`
	if _, err = db.ExecContext(ctx, createIndexSQL); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Failed to close DB connection after index creation error: %v", closeErr)
		}
		return nil, fmt.Errorf("index creation error: %w", err)
	}

	return &PostgresStorage{
		db: db,
	}, nil
}

// SaveAgent сохраняет запись об агенте
func (ps *PostgresStorage) SaveAgent(ctx context.Context, record models.AgentRecord) error {
	_, err := ps.db.ExecContext(ctx,
		"INSERT INTO agents (id, session_id, urls, raw_phone_number, phone_number, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		record.ID, record.SessionID, pq.Array(nonNil(record.URLs)), record.RawPhone, record.PhoneNumber, record.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // 23505 = unique_violation
			return ErrAgentConflict
		}
		return fmt.Errorf("save agent error: %w", err)
	}
	return nil
}

// GetSessionAgents получает записи сессии в порядке создания
func (ps *PostgresStorage) GetSessionAgents(ctx context.Context, sessionID string) ([]models.AgentRecord, error) {
	rows, err := ps.db.QueryContext(ctx,
		"SELECT id, session_id, urls, raw_phone_number, phone_number, created_at FROM agents WHERE session_id = $1 ORDER BY created_at",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session agents error: %w", err)
	}
	defer rows.Close()

	result := []models.AgentRecord{}
	for rows.Next() {
		var record models.AgentRecord
		var urls pq.StringArray
		if err := rows.Scan(&record.ID, &record.SessionID, &urls, &record.RawPhone, &record.PhoneNumber, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan agent row error: %w", err)
		}
		record.URLs = nonNil(urls)
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent rows error: %w", err)
	}

	return result, nil
}

// Close закрывает соединение с базой данных
func (ps *PostgresStorage) Close() error {
	return ps.db.Close()
}

// CheckConnection проверяет соединение с базой данных
func (ps *PostgresStorage) CheckConnection(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}

func nonNil(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
