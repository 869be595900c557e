package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/InQaaaaGit/supportgen/internal/agent"
	"github.com/InQaaaaGit/supportgen/internal/config"
	"github.com/InQaaaaGit/supportgen/internal/middleware"
	"github.com/InQaaaaGit/supportgen/internal/models"
	"github.com/InQaaaaGit/supportgen/internal/phone"
	"github.com/InQaaaaGit/supportgen/internal/service"
	"github.com/InQaaaaGit/supportgen/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSession = "test-session"

// fakeAgentServer имитирует сервис создания агентов
type fakeAgentServer struct {
	*httptest.Server
	calls    atomic.Int32
	lastURLs atomic.Value
	status   int
	body     string
}

func newFakeAgentServer(t *testing.T, status int, body string) *fakeAgentServer {
	t.Helper()
	fake := &fakeAgentServer{status: status, body: body}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.calls.Add(1)
		var req models.CreateAgentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fake.lastURLs.Store(req.URLs)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fake.status)
		_, _ = w.Write([]byte(fake.body))
	}))
	t.Cleanup(fake.Close)
	return fake
}

func withTestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.ContextKeySessionID, testSession)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(t *testing.T, endpoint string) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	svc := service.NewSupportService(
		storage.NewMemoryFormStorage(time.Hour, logger),
		storage.NewMemoryStorage(logger),
		agent.NewClient(endpoint, nil, logger),
		phone.NewFormatter(phone.DefaultRegion),
		nil,
		logger,
	)
	h := NewHandler(svc, &config.Config{}, logger)

	r := chi.NewRouter()
	r.Use(withTestSession)
	h.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeForm(t *testing.T, w *httptest.ResponseRecorder) models.FormResponse {
	t.Helper()
	var resp models.FormResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestPage_EndToEnd(t *testing.T) {
	fake := newFakeAgentServer(t, http.StatusOK, `{"phone_number":"+442071838750"}`)
	router := newTestRouter(t, fake.URL)

	w := doRequest(t, router, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contentTypeHTML, w.Header().Get("Content-Type"))
	page := w.Body.String()
	assert.Contains(t, page, "Flyflow Support Generator")
	assert.Contains(t, page, `placeholder="Enter one URL and press Enter"`)
	assert.Contains(t, page, "Generate Phone Number")
	assert.NotContains(t, page, "Support Phone Number")

	w = doRequest(t, router, http.MethodPost, "/urls", "application/x-www-form-urlencoded", "url=https%3A%2F%2Fdocs.example.com")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = doRequest(t, router, http.MethodGet, "/", "", "")
	assert.Contains(t, w.Body.String(), "https://docs.example.com")
	assert.Contains(t, w.Body.String(), `action="/urls/0/delete"`)

	w = doRequest(t, router, http.MethodPost, "/submit", "", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, int32(1), fake.calls.Load())
	assert.Equal(t, []string{"https://docs.example.com"}, fake.lastURLs.Load())

	w = doRequest(t, router, http.MethodGet, "/", "", "")
	page = w.Body.String()
	assert.Contains(t, page, "Support Phone Number")
	assert.Contains(t, page, "+44 20 7183 8750")
	assert.NotContains(t, page, `role="alert"`)
}

func TestPage_IdleControls(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:1")

	w := doRequest(t, router, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()

	assert.Contains(t, page, "<button type=\"submit\">Generate Phone Number</button>")
	assert.NotContains(t, page, `http-equiv="refresh"`)
	// Кнопка переключается в загрузку сразу при отправке
	assert.Contains(t, page, `id="submit-form"`)
	assert.Contains(t, page, "b.disabled = true")
	assert.Contains(t, page, "b.textContent = 'Loading...'")
	// Enter с модификаторами не добавляет URL
	for _, modifier := range []string{"shiftKey", "ctrlKey", "altKey", "metaKey"} {
		assert.Contains(t, page, "!event."+modifier)
	}
}

func TestPage_FailureNoticeShownOnce(t *testing.T) {
	fake := newFakeAgentServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	router := newTestRouter(t, fake.URL)

	w := doRequest(t, router, http.MethodPost, "/submit", "", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{}, fake.lastURLs.Load())

	w = doRequest(t, router, http.MethodGet, "/", "", "")
	assert.Contains(t, w.Body.String(), service.FailureNotice)
	assert.Contains(t, w.Body.String(), "Generate Phone Number")

	w = doRequest(t, router, http.MethodGet, "/", "", "")
	assert.NotContains(t, w.Body.String(), service.FailureNotice)
}

func TestPage_RemoveURL(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:1")
	for _, u := range []string{"a", "b", "c"} {
		doRequest(t, router, http.MethodPost, "/urls", "application/x-www-form-urlencoded", "url="+u)
	}

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "Valid index", path: "/urls/1/delete", wantStatus: http.StatusSeeOther},
		{name: "Out of range", path: "/urls/5/delete", wantStatus: http.StatusBadRequest},
		{name: "Not a number", path: "/urls/x/delete", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, tt.path, "", "")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	w := doRequest(t, router, http.MethodGet, "/api/form", "", "")
	assert.Equal(t, []string{"a", "c"}, decodeForm(t, w).URLs)
}

func TestPage_Reset(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:1")
	doRequest(t, router, http.MethodPost, "/urls", "application/x-www-form-urlencoded", "url=a")

	w := doRequest(t, router, http.MethodPost, "/reset", "", "")
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/form", "", "")
	assert.Empty(t, decodeForm(t, w).URLs)
}

func TestAPI_FormLifecycle(t *testing.T) {
	fake := newFakeAgentServer(t, http.StatusOK, `{"phone_number":"+14155552671"}`)
	router := newTestRouter(t, fake.URL)

	w := doRequest(t, router, http.MethodGet, "/api/form", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeForm(t, w)
	assert.Equal(t, []string{}, resp.URLs)
	assert.Equal(t, "idle", resp.State)
	assert.False(t, resp.Loading)

	w = doRequest(t, router, http.MethodPut, "/api/form/draft", contentTypeJSON, `{"draft":"https://a"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://a", decodeForm(t, w).Draft)

	w = doRequest(t, router, http.MethodPost, "/api/form/urls", contentTypeJSON, `{"url":"  https://a  "}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeForm(t, w)
	assert.Equal(t, []string{"https://a"}, resp.URLs)
	assert.Empty(t, resp.Draft)

	w = doRequest(t, router, http.MethodPost, "/api/form/urls", contentTypeJSON, `{"url":"   "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"https://a"}, decodeForm(t, w).URLs)

	w = doRequest(t, router, http.MethodPost, "/api/form/submit", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeForm(t, w)
	assert.Equal(t, "+1 415 555 2671", resp.PhoneNumber)
	assert.Equal(t, "displaying_number", resp.State)
	assert.False(t, resp.Loading)

	w = doRequest(t, router, http.MethodGet, "/api/agents", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var agents []models.AgentRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&agents))
	require.Len(t, agents, 1)
	assert.Equal(t, "+14155552671", agents[0].RawPhone)
	assert.Equal(t, []string{"https://a"}, agents[0].URLs)

	w = doRequest(t, router, http.MethodDelete, "/api/form/urls/0", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeForm(t, w).URLs)

	w = doRequest(t, router, http.MethodDelete, "/api/form", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/form", "", "")
	assert.Empty(t, decodeForm(t, w).PhoneNumber)
}

func TestAPI_SubmitFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "Non-success status", status: http.StatusServiceUnavailable, body: `{}`},
		{name: "Missing phone number", status: http.StatusOK, body: `{"status":"ok"}`},
		{name: "Malformed body", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeAgentServer(t, tt.status, tt.body)
			router := newTestRouter(t, fake.URL)

			w := doRequest(t, router, http.MethodPost, "/api/form/submit", "", "")
			require.Equal(t, http.StatusBadGateway, w.Code)
			resp := decodeForm(t, w)
			assert.Equal(t, service.FailureNotice, resp.Error)
			assert.False(t, resp.Loading)
			assert.Empty(t, resp.PhoneNumber)

			w = doRequest(t, router, http.MethodGet, "/api/form", "", "")
			assert.Empty(t, decodeForm(t, w).Error)
		})
	}
}

func TestAPI_SubmitTransportFailure(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	router := newTestRouter(t, closed.URL)

	w := doRequest(t, router, http.MethodPost, "/api/form/submit", "", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAPI_SubmitInProgress(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		_, _ = w.Write([]byte(`{"phone_number":"+14155552671"}`))
	}))
	defer slow.Close()
	router := newTestRouter(t, slow.URL)

	done := make(chan int, 1)
	go func() {
		w := doRequest(t, router, http.MethodPost, "/api/form/submit", "", "")
		done <- w.Code
	}()
	<-started

	w := doRequest(t, router, http.MethodPost, "/api/form/submit", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/form", "", "")
	resp := decodeForm(t, w)
	assert.True(t, resp.Loading)
	assert.Equal(t, "submitting", resp.State)

	w = doRequest(t, router, http.MethodGet, "/", "", "")
	page := w.Body.String()
	assert.Contains(t, page, "<button type=\"submit\" disabled>Loading...</button>")
	assert.Contains(t, page, `<meta http-equiv="refresh" content="2">`)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPI_BadRequests(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:1")

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
	}{
		{name: "Wrong content type", method: http.MethodPost, path: "/api/form/urls", contentType: "text/plain", body: "https://a", wantStatus: http.StatusBadRequest},
		{name: "Invalid JSON", method: http.MethodPost, path: "/api/form/urls", contentType: contentTypeJSON, body: "{", wantStatus: http.StatusBadRequest},
		{name: "Invalid draft JSON", method: http.MethodPut, path: "/api/form/draft", contentType: contentTypeJSON, body: "[]", wantStatus: http.StatusBadRequest},
		{name: "Index out of range", method: http.MethodDelete, path: "/api/form/urls/0", wantStatus: http.StatusBadRequest},
		{name: "Negative index", method: http.MethodDelete, path: "/api/form/urls/-1", wantStatus: http.StatusBadRequest},
		{name: "Empty history", method: http.MethodGet, path: "/api/agents", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, tt.method, tt.path, tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandler_NoSession(t *testing.T) {
	h := NewHandler(nil, &config.Config{}, zap.NewNop())
	w := httptest.NewRecorder()
	h.HandleGetForm(w, httptest.NewRequest(http.MethodGet, "/api/form", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// stubService позволяет проверить ошибки хранилища
type stubService struct {
	SupportService
	err error
}

func (s stubService) CheckConnection(context.Context) error {
	return s.err
}

func TestHandlePing(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "Storage available", wantStatus: http.StatusOK},
		{name: "Storage unavailable", err: errors.New("connection refused"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(stubService{err: tt.err}, &config.Config{}, zap.NewNop())
			w := httptest.NewRecorder()
			h.HandlePing(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
