// Package app собирает зависимости приложения и настраивает маршруты.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/InQaaaaGit/supportgen/internal/agent"
	"github.com/InQaaaaGit/supportgen/internal/config"
	"github.com/InQaaaaGit/supportgen/internal/handler"
	"github.com/InQaaaaGit/supportgen/internal/metrics"
	"github.com/InQaaaaGit/supportgen/internal/middleware"
	"github.com/InQaaaaGit/supportgen/internal/phone"
	"github.com/InQaaaaGit/supportgen/internal/service"
	"github.com/InQaaaaGit/supportgen/internal/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App представляет приложение генерации номера поддержки.
// Инкапсулирует конфигурацию, HTTP роутер, логгер и обработчики запросов.
type App struct {
	config   *config.Config             // Конфигурация приложения
	router   *chi.Mux                   // HTTP роутер для обработки запросов
	logger   *zap.Logger                // Логгер для записи событий приложения
	handler  *handler.Handler           // Обработчики HTTP запросов
	sessions *middleware.SessionManager // Cookie сессий
	metrics  *metrics.Recorder          // Метрики Prometheus
	closers  []io.Closer                // Хранилища, требующие закрытия
}

// NewApp создает хранилища, клиента сервиса агентов и сервисный слой,
// затем регистрирует маршруты. ctx ограничивает время жизни фоновых задач хранилищ.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	agents, err := storage.NewAgentStorage(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating agent storage: %w", err)
	}

	forms, err := storage.NewFormStorage(ctx, cfg, logger)
	if err != nil {
		closeAll(logger, collectClosers(agents))
		return nil, fmt.Errorf("error creating form storage: %w", err)
	}

	recorder := metrics.NewRecorder()
	creator := agent.NewClient(cfg.AgentEndpoint, nil, logger)
	svc := service.NewSupportService(
		forms.FormStorage,
		agents,
		creator,
		phone.NewFormatter(cfg.DefaultRegion),
		recorder,
		logger,
	)

	logger.Info("Application configured",
		zap.String("agent_endpoint", creator.Endpoint()),
		zap.String("form_storage", forms.Kind),
		zap.String("default_region", cfg.DefaultRegion))

	a := &App{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		handler:  handler.NewHandler(svc, cfg, logger),
		sessions: middleware.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.IsHTTPSEnabled(), logger),
		metrics:  recorder,
		closers:  collectClosers(agents, forms.FormStorage),
	}
	a.setupRoutes()
	return a, nil
}

// setupRoutes настраивает HTTP маршруты и middleware для приложения
func (a *App) setupRoutes() {
	a.router.Use(chimiddleware.RequestID)
	a.router.Use(chimiddleware.Recoverer)
	a.router.Use(middleware.LoggerMiddleware(a.logger))

	// Служебные маршруты без сессии
	a.router.Handle("/metrics", a.metrics.Handler())
	a.router.Mount("/debug/pprof", http.DefaultServeMux)

	a.router.Group(func(r chi.Router) {
		r.Use(middleware.GzipMiddleware)
		r.Use(a.sessions.WithSession)
		a.handler.RegisterRoutes(r)
	})
}

// Router возвращает обработчик со всеми маршрутами
func (a *App) Router() http.Handler {
	return a.router
}

// GetServer создает HTTP сервер. WriteTimeout не задается:
// ответ на отправку формы ждет сервис агентов без ограничения времени.
func (a *App) GetServer() *http.Server {
	return &http.Server{
		Addr:              a.config.ServerAddress,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Close закрывает хранилища
func (a *App) Close() error {
	return closeAll(a.logger, a.closers)
}

func collectClosers(stores ...interface{}) []io.Closer {
	var closers []io.Closer
	for _, s := range stores {
		if c, ok := s.(io.Closer); ok {
			closers = append(closers, c)
		}
	}
	return closers
}

func closeAll(logger *zap.Logger, closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("Error closing storage", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
