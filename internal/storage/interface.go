package storage

import (
	"context"

	"github.com/InQaaaaGit/supportgen/internal/form"
	"github.com/InQaaaaGit/supportgen/internal/models"
)

// FormStorage хранит состояние формы каждой сессии.
// Состояние живет, пока сессия активна, и не является историей.
type FormStorage interface {
	// Load возвращает копию формы сессии или ErrFormNotFound
	Load(ctx context.Context, sessionID string) (*form.Form, error)

	// Save сохраняет копию формы сессии
	Save(ctx context.Context, sessionID string, f *form.Form) error

	// Delete удаляет форму сессии, отсутствие формы ошибкой не считается
	Delete(ctx context.Context, sessionID string) error
}

// AgentStorage хранит историю успешно созданных агентов
type AgentStorage interface {
	// SaveAgent сохраняет запись, повтор ID возвращает ErrAgentConflict
	SaveAgent(ctx context.Context, record models.AgentRecord) error

	// GetSessionAgents возвращает записи сессии в порядке создания
	GetSessionAgents(ctx context.Context, sessionID string) ([]models.AgentRecord, error)
}

// DatabaseChecker интерфейс для проверки соединения с хранилищем
type DatabaseChecker interface {
	// CheckConnection проверяет соединение с хранилищем
	CheckConnection(ctx context.Context) error
}
