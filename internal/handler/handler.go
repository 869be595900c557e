// Package handler содержит HTTP обработчики страницы формы и JSON API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/InQaaaaGit/supportgen/internal/config"
	"github.com/InQaaaaGit/supportgen/internal/form"
	"github.com/InQaaaaGit/supportgen/internal/middleware"
	"github.com/InQaaaaGit/supportgen/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	contentTypeJSON = "application/json"
	contentTypeHTML = "text/html; charset=utf-8"
)

// errNoSession запрос прошел без middleware сессии
var errNoSession = errors.New("session not found in context")

// SupportService определяет сценарии формы, используемые обработчиками
type SupportService interface {
	View(ctx context.Context, sessionID string) (*form.Form, error)
	SetDraft(ctx context.Context, sessionID, draft string) (*form.Form, error)
	AddURL(ctx context.Context, sessionID, text string) (*form.Form, error)
	RemoveURL(ctx context.Context, sessionID string, index int) (*form.Form, error)
	Reset(ctx context.Context, sessionID string) error
	Submit(ctx context.Context, sessionID string) (*form.Form, error)
	Agents(ctx context.Context, sessionID string) ([]models.AgentRecord, error)
	CheckConnection(ctx context.Context) error
}

type Handler struct {
	service SupportService
	cfg     *config.Config
	logger  *zap.Logger
}

func NewHandler(service SupportService, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
		logger:  logger,
	}
}

// sessionID возвращает ID сессии или пишет 401
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		h.logger.Error("Request without session", zap.String("path", r.URL.Path), zap.Error(errNoSession))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return sessionID, true
}

// urlIndex разбирает индекс URL из пути
func urlIndex(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "index"))
}

// closeBody закрывает тело запроса с логированием ошибки
func (h *Handler) closeBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		h.logger.Error("Error closing request body", zap.Error(err))
	}
}

// writeJSON пишет JSON ответ с указанным статусом
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error writing JSON response", zap.Error(err))
	}
}

// formResponse преобразует форму в ответ API
func formResponse(f *form.Form) models.FormResponse {
	urls := f.URLs
	if urls == nil {
		urls = []string{}
	}
	return models.FormResponse{
		URLs:        urls,
		Draft:       f.Draft,
		PhoneNumber: f.PhoneNumber,
		Loading:     f.Loading,
		State:       string(f.State()),
		Error:       f.Notice,
	}
}
