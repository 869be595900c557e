package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/InQaaaaGit/supportgen/internal/form"
	"github.com/InQaaaaGit/supportgen/internal/service"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// HandlePage отображает страницу формы
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
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

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, f); err != nil {
		h.logger.Error("Error rendering page", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("Error writing response", zap.Error(err))
	}
}

// HandleAddURL добавляет URL из поля ввода
func (h *Handler) HandleAddURL(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	defer h.closeBody(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	if _, err := h.service.AddURL(r.Context(), sessionID, r.PostForm.Get("url")); err != nil {
		h.logger.Error("Error adding URL", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.redirectHome(w, r)
}

// HandleRemoveURL удаляет URL по индексу из пути
func (h *Handler) HandleRemoveURL(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	index, err := urlIndex(r)
	if err != nil {
		http.Error(w, "Invalid URL index", http.StatusBadRequest)
		return
	}

	if _, err := h.service.RemoveURL(r.Context(), sessionID, index); err != nil {
		if errors.Is(err, form.ErrIndexOutOfRange) {
			http.Error(w, "URL index out of range", http.StatusBadRequest)
			return
		}
		h.logger.Error("Error removing URL", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.redirectHome(w, r)
}

// HandleSubmit отправляет список URL и возвращает на страницу формы.
// Ошибка сервиса агентов показывается уведомлением на странице.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	_, err := h.service.Submit(r.Context(), sessionID)
	switch {
	case err == nil,
		errors.Is(err, service.ErrSubmissionFailed),
		errors.Is(err, form.ErrSubmitInProgress),
		errors.Is(err, form.ErrStaleSubmission):
		h.redirectHome(w, r)
	default:
		h.logger.Error("Error submitting form", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// HandleReset начинает форму заново
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.Reset(r.Context(), sessionID); err != nil {
		h.logger.Error("Error resetting form", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.redirectHome(w, r)
}

func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
