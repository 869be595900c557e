package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/InQaaaaGit/supportgen/internal/models"
	"go.uber.org/zap"
)

// MemoryStorage реализует AgentStorage с использованием памяти
type MemoryStorage struct {
	mu sync.RWMutex
	// map[recordID]AgentRecord
	agents map[string]models.AgentRecord
	logger *zap.Logger
}

// NewMemoryStorage создает новый экземпляр MemoryStorage
func NewMemoryStorage(logger *zap.Logger) *MemoryStorage {
	return &MemoryStorage{
		agents: make(map[string]models.AgentRecord),
		logger: logger,
	}
}

// SaveAgent сохраняет запись об агенте в памяти
func (ms *MemoryStorage) SaveAgent(ctx context.Context, record models.AgentRecord) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.agents[record.ID]; exists {
		return ErrAgentConflict
	}

	record.URLs = append([]string{}, record.URLs...)
	ms.agents[record.ID] = record
	return nil
}

// GetSessionAgents получает все записи сессии из памяти
func (ms *MemoryStorage) GetSessionAgents(ctx context.Context, sessionID string) ([]models.AgentRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	result := []models.AgentRecord{}
	for _, record := range ms.agents {
		if record.SessionID == sessionID {
			record.URLs = append([]string{}, record.URLs...)
			result = append(result, record)
		}
	}

	sortByCreated(result)
	return result, nil
}

// CheckConnection проверяет доступность хранилища
func (ms *MemoryStorage) CheckConnection(ctx context.Context) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.agents == nil {
		return fmt.Errorf("storage is not initialized")
	}

	return nil
}

func sortByCreated(records []models.AgentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
