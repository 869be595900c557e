package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/InQaaaaGit/supportgen/internal/form"
	"github.com/InQaaaaGit/supportgen/internal/models"
	"github.com/InQaaaaGit/supportgen/internal/service"
	"go.uber.org/zap"
)

// HandleGetForm возвращает текущее состояние формы.
// Уведомление об ошибке отдается один раз.
func (h *Handler) HandleGetForm(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	f, err := h.service.View(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Error loading form", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, formResponse(f))
}

// HandleSetDraft обновляет черновик ввода
func (h *Handler) HandleSetDraft(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req models.DraftRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	f, err := h.service.SetDraft(r.Context(), sessionID, req.Draft)
	if err != nil {
		h.logger.Error("Error updating draft", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, formResponse(f))
}

// HandleAPIAddURL добавляет URL в конец списка
func (h *Handler) HandleAPIAddURL(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req models.AddURLRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	f, err := h.service.AddURL(r.Context(), sessionID, req.URL)
	if err != nil {
		h.logger.Error("Error adding URL", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, formResponse(f))
}

// HandleAPIRemoveURL удаляет URL по индексу
func (h *Handler) HandleAPIRemoveURL(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	index, err := urlIndex(r)
	if err != nil {
		http.Error(w, "Invalid URL index", http.StatusBadRequest)
		return
	}

	f, err := h.service.RemoveURL(r.Context(), sessionID, index)
	if err != nil {
		if errors.Is(err, form.ErrIndexOutOfRange) {
			http.Error(w, "URL index out of range", http.StatusBadRequest)
			return
		}
		h.logger.Error("Error removing URL", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, formResponse(f))
}

// HandleAPISubmit отправляет список URL и ждет ответа сервиса агентов
func (h *Handler) HandleAPISubmit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	f, err := h.service.Submit(r.Context(), sessionID)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, formResponse(f))
	case errors.Is(err, form.ErrSubmitInProgress):
		http.Error(w, "Submission already in progress", http.StatusConflict)
	case errors.Is(err, form.ErrStaleSubmission):
		http.Error(w, "Form was reset during submission", http.StatusConflict)
	case errors.Is(err, service.ErrSubmissionFailed):
		// Уведомление уходит в этом ответе, на странице оно не повторяется
		if viewed, viewErr := h.service.View(r.Context(), sessionID); viewErr == nil {
			f = viewed
		}
		h.writeJSON(w, http.StatusBadGateway, formResponse(f))
	default:
		h.logger.Error("Error submitting form", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// HandleAPIReset удаляет форму сессии
func (h *Handler) HandleAPIReset(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.Reset(r.Context(), sessionID); err != nil {
		h.logger.Error("Error resetting form", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetAgents возвращает историю созданных агентов сессии
func (h *Handler) HandleGetAgents(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	agents, err := h.service.Agents(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Error getting session agents", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if len(agents) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, agents)
}

// decodeJSON проверяет Content-Type и разбирает тело запроса
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer h.closeBody(r)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeJSON) {
		http.Error(w, "Invalid Content-Type", http.StatusBadRequest)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
