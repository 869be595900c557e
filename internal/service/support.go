// Package service реализует сценарии формы генерации номера поддержки:
// накопление URL, отправку в сервис создания агентов и форматирование номера.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/InQaaaaGit/supportgen/internal/agent"
	"github.com/InQaaaaGit/supportgen/internal/form"
	"github.com/InQaaaaGit/supportgen/internal/models"
	"github.com/InQaaaaGit/supportgen/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FailureNotice текст уведомления при любой ошибке отправки
const FailureNotice = "An error occurred while generating the phone number."

// ErrSubmissionFailed возвращается, когда сервис создания агентов не вернул номер
var ErrSubmissionFailed = errors.New("agent creation failed")

// PhoneFormatter форматирует сырой номер телефона для отображения
type PhoneFormatter interface {
	Format(raw string) string
}

// MetricsRecorder принимает метрики сценариев формы
type MetricsRecorder interface {
	ObserveSubmission(success bool, urls int, duration time.Duration)
	IncRejected()
	IncURLsAdded()
}

// SupportService управляет формами сессий
type SupportService struct {
	forms     storage.FormStorage
	agents    storage.AgentStorage
	creator   agent.Creator
	formatter PhoneFormatter
	metrics   MetricsRecorder
	locks     *keyedMutex
	inflight  *submissionSet
	logger    *zap.Logger
	now       func() time.Time
}

// NewSupportService создает сервис. metrics может быть nil.
func NewSupportService(
	forms storage.FormStorage,
	agents storage.AgentStorage,
	creator agent.Creator,
	formatter PhoneFormatter,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *SupportService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &SupportService{
		forms:     forms,
		agents:    agents,
		creator:   creator,
		formatter: formatter,
		metrics:   metrics,
		locks:     newKeyedMutex(),
		inflight:  newSubmissionSet(),
		logger:    logger,
		now:       time.Now,
	}
}

// View возвращает форму сессии вместе с одноразовым уведомлением.
// Уведомление после показа удаляется.
func (s *SupportService) View(ctx context.Context, sessionID string) (*form.Form, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	f, recovered, err := s.loadRecovered(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := f.Clone()
	if f.TakeNotice() != "" || recovered {
		if err := s.forms.Save(ctx, sessionID, f); err != nil {
			return nil, fmt.Errorf("error saving form: %w", err)
		}
	}
	return view, nil
}

// SetDraft обновляет черновик ввода
func (s *SupportService) SetDraft(ctx context.Context, sessionID, draft string) (*form.Form, error) {
	return s.update(ctx, sessionID, func(f *form.Form) error {
		f.SetDraft(draft)
		return nil
	})
}

// AddURL добавляет текст как новый URL. Пустой после обрезки текст игнорируется.
func (s *SupportService) AddURL(ctx context.Context, sessionID, text string) (*form.Form, error) {
	return s.update(ctx, sessionID, func(f *form.Form) error {
		if f.AddURL(text) {
			s.metrics.IncURLsAdded()
		}
		return nil
	})
}

// RemoveURL удаляет URL по индексу
func (s *SupportService) RemoveURL(ctx context.Context, sessionID string, index int) (*form.Form, error) {
	return s.update(ctx, sessionID, func(f *form.Form) error {
		return f.RemoveURL(index)
	})
}

// Reset отбрасывает форму сессии. Результат выполняющейся отправки
// после сброса не будет применен.
func (s *SupportService) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.forms.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("error deleting form: %w", err)
	}
	return nil
}

// Submit отправляет текущий список URL в сервис создания агентов.
// Пока предыдущая отправка не завершена, возвращает form.ErrSubmitInProgress
// без сетевого запроса. Ошибки сервиса возвращаются как ErrSubmissionFailed,
// ранее полученный номер при этом сохраняется.
func (s *SupportService) Submit(ctx context.Context, sessionID string) (*form.Form, error) {
	// Запрос не отменяется вместе с HTTP запросом пользователя
	ctx = context.WithoutCancel(ctx)
	submissionID := uuid.NewString()

	urls, err := s.beginSubmit(ctx, sessionID, submissionID)
	if err != nil {
		return nil, err
	}
	// После выхода незавершенная отправка считается брошенной
	defer s.inflight.remove(submissionID)

	start := s.now()
	raw, callErr := s.creator.CreateAgent(ctx, urls)
	duration := s.now().Sub(start)
	s.metrics.ObserveSubmission(callErr == nil, len(urls), duration)

	if callErr != nil {
		s.logger.Error("Agent creation failed",
			zap.String("session_id", sessionID),
			zap.Int("urls", len(urls)),
			zap.Duration("latency", duration),
			zap.Error(callErr))
		f, err := s.finishSubmit(ctx, sessionID, func(f *form.Form) error {
			return f.FailSubmit(submissionID, FailureNotice)
		})
		if err != nil {
			return nil, err
		}
		return f, fmt.Errorf("%w: %w", ErrSubmissionFailed, callErr)
	}

	formatted := s.formatter.Format(raw)
	s.logger.Info("Agent created",
		zap.String("session_id", sessionID),
		zap.String("phone_number", formatted),
		zap.Duration("latency", duration))

	f, err := s.finishSubmit(ctx, sessionID, func(f *form.Form) error {
		return f.CompleteSubmit(submissionID, formatted)
	})
	if err != nil {
		return nil, err
	}

	record := models.AgentRecord{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		URLs:        urls,
		RawPhone:    raw,
		PhoneNumber: formatted,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.agents.SaveAgent(ctx, record); err != nil {
		// История вторична, номер уже показан пользователю
		s.logger.Error("Error saving agent record", zap.String("session_id", sessionID), zap.Error(err))
	}

	return f, nil
}

// Agents возвращает историю созданных агентов сессии
func (s *SupportService) Agents(ctx context.Context, sessionID string) ([]models.AgentRecord, error) {
	agents, err := s.agents.GetSessionAgents(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error getting session agents: %w", err)
	}
	return agents, nil
}

func (s *SupportService) beginSubmit(ctx context.Context, sessionID, submissionID string) ([]string, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	f, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	urls, err := f.BeginSubmit(submissionID)
	if err != nil {
		s.metrics.IncRejected()
		return nil, err
	}

	s.inflight.add(submissionID)
	if err := s.forms.Save(ctx, sessionID, f); err != nil {
		s.inflight.remove(submissionID)
		return nil, fmt.Errorf("error saving form: %w", err)
	}
	return urls, nil
}

// finishSubmit применяет результат, если форма все еще ждет именно эту отправку
func (s *SupportService) finishSubmit(ctx context.Context, sessionID string, apply func(*form.Form) error) (*form.Form, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	f, err := s.forms.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrFormNotFound) {
			s.logger.Info("Form discarded before submission finished", zap.String("session_id", sessionID))
			return nil, form.ErrStaleSubmission
		}
		return nil, fmt.Errorf("error loading form: %w", err)
	}

	if err := apply(f); err != nil {
		s.logger.Info("Submission result ignored", zap.String("session_id", sessionID), zap.Error(err))
		return nil, form.ErrStaleSubmission
	}

	if err := s.forms.Save(ctx, sessionID, f); err != nil {
		return nil, fmt.Errorf("error saving form: %w", err)
	}
	return f.Clone(), nil
}

func (s *SupportService) update(ctx context.Context, sessionID string, apply func(*form.Form) error) (*form.Form, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	f, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := apply(f); err != nil {
		return f.Clone(), err
	}

	if err := s.forms.Save(ctx, sessionID, f); err != nil {
		return nil, fmt.Errorf("error saving form: %w", err)
	}
	return f.Clone(), nil
}

// load возвращает форму сессии, создавая пустую при отсутствии
func (s *SupportService) load(ctx context.Context, sessionID string) (*form.Form, error) {
	f, _, err := s.loadRecovered(ctx, sessionID)
	return f, err
}

// loadRecovered дополнительно сообщает, была ли снята брошенная отправка.
// Отправка брошена, если форма ждет ее результата, но в этом процессе она
// не выполняется: сохранение результата не удалось или процесс перезапущен.
func (s *SupportService) loadRecovered(ctx context.Context, sessionID string) (*form.Form, bool, error) {
	f, err := s.forms.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrFormNotFound) {
			return form.New(), false, nil
		}
		return nil, false, fmt.Errorf("error loading form: %w", err)
	}

	if !f.Loading || s.inflight.contains(f.SubmissionID) {
		return f, false, nil
	}

	s.logger.Warn("Abandoned submission cleared",
		zap.String("session_id", sessionID),
		zap.String("submission_id", f.SubmissionID))
	if err := f.FailSubmit(f.SubmissionID, FailureNotice); err != nil {
		return nil, false, fmt.Errorf("error clearing abandoned submission: %w", err)
	}
	return f, true, nil
}

// CheckConnection проверяет хранилище истории, если оно это поддерживает
func (s *SupportService) CheckConnection(ctx context.Context) error {
	if checker, ok := s.agents.(storage.DatabaseChecker); ok {
		if err := checker.CheckConnection(ctx); err != nil {
			return err
		}
	}
	if checker, ok := s.forms.(storage.DatabaseChecker); ok {
		return checker.CheckConnection(ctx)
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) ObserveSubmission(bool, int, time.Duration) {}
func (nopMetrics) IncRejected()                               {}
func (nopMetrics) IncURLsAdded()                              {}
