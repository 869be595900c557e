package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/InQaaaaGit/supportgen/internal/models"
	"go.uber.org/zap"
)

// AgentFileRecord represents a record in the file storage
type AgentFileRecord struct {
	UUID        string    `json:"uuid"`
	SessionID   string    `json:"session_id"`
	URLs        []string  `json:"urls"`
	RawPhone    string    `json:"raw_phone_number"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileStorage implements AgentStorage using an append-only JSON lines file
type FileStorage struct {
	filePath string
	agents   map[string]AgentFileRecord
	order    []string
	mutex    sync.RWMutex
	file     *os.File
	logger   *zap.Logger
}

// NewFileStorage creates a new FileStorage instance
func NewFileStorage(filePath string, logger *zap.Logger) (*FileStorage, error) {
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	fs := &FileStorage{
		filePath: filePath,
		file:     file,
		agents:   make(map[string]AgentFileRecord),
		logger:   logger,
	}

	// Load existing data from file
	if err := fs.loadFromFile(); err != nil {
		logger.Error("Error loading data from file", zap.Error(err))
		// Не возвращаем ошибку, так как файл может быть пустым или частично записанным
	}

	return fs, nil
}

// loadFromFile loads data from the file
func (fs *FileStorage) loadFromFile() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	// Перемещаем указатель в начало файла
	if _, err := fs.file.Seek(0, 0); err != nil {
		return fmt.Errorf("error seeking to file start: %w", err)
	}

	decoder := json.NewDecoder(fs.file)
	for decoder.More() {
		var record AgentFileRecord
		if err := decoder.Decode(&record); err != nil {
			return fmt.Errorf("error decoding record: %w", err)
		}
		if _, exists := fs.agents[record.UUID]; !exists {
			fs.order = append(fs.order, record.UUID)
		}
		fs.agents[record.UUID] = record
	}

	return nil
}

// SaveAgent дописывает запись об агенте в файл
func (fs *FileStorage) SaveAgent(ctx context.Context, agent models.AgentRecord) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if fs.file == nil {
		return ErrStorageClosed
	}
	if _, exists := fs.agents[agent.ID]; exists {
		return ErrAgentConflict
	}

	record := AgentFileRecord{
		UUID:        agent.ID,
		SessionID:   agent.SessionID,
		URLs:        append([]string{}, agent.URLs...),
		RawPhone:    agent.RawPhone,
		PhoneNumber: agent.PhoneNumber,
		CreatedAt:   agent.CreatedAt,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error marshaling agent record: %w", err)
	}

	if _, err := fs.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	fs.agents[record.UUID] = record
	fs.order = append(fs.order, record.UUID)
	return nil
}

// GetSessionAgents получает все записи сессии в порядке записи в файл
func (fs *FileStorage) GetSessionAgents(ctx context.Context, sessionID string) ([]models.AgentRecord, error) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	result := []models.AgentRecord{}
	for _, id := range fs.order {
		record := fs.agents[id]
		if record.SessionID != sessionID {
			continue
		}
		result = append(result, models.AgentRecord{
			ID:          record.UUID,
			SessionID:   record.SessionID,
			URLs:        append([]string{}, record.URLs...),
			RawPhone:    record.RawPhone,
			PhoneNumber: record.PhoneNumber,
			CreatedAt:   record.CreatedAt,
		})
	}

	return result, nil
}

// CheckConnection проверяет доступность файла
func (fs *FileStorage) CheckConnection(ctx context.Context) error {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	if fs.file == nil {
		return fmt.Errorf("file is not open")
	}

	return nil
}

// Close закрывает файл
func (fs *FileStorage) Close() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if fs.file != nil {
		// Принудительно синхронизируем данные перед закрытием
		if err := fs.file.Sync(); err != nil {
			fs.logger.Error("Error syncing file before close", zap.Error(err))
		}

		if err := fs.file.Close(); err != nil {
			return fmt.Errorf("error closing file: %w", err)
		}
		fs.file = nil
	}

	return nil
}
