package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes регистрирует маршруты страницы, JSON API и проверки хранилищ
func (h *Handler) RegisterRoutes(r chi.Router) {
	// Страница формы
	r.Get("/", h.HandlePage)
	r.Post("/urls", h.HandleAddURL)
	r.Post("/urls/{index}/delete", h.HandleRemoveURL)
	r.Post("/submit", h.HandleSubmit)
	r.Post("/reset", h.HandleReset)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/form", h.HandleGetForm)
		r.Delete("/form", h.HandleAPIReset)
		r.Put("/form/draft", h.HandleSetDraft)
		r.Post("/form/urls", h.HandleAPIAddURL)
		r.Delete("/form/urls/{index}", h.HandleAPIRemoveURL)
		r.Post("/form/submit", h.HandleAPISubmit)
		r.Get("/agents", h.HandleGetAgents)
	})

	r.Get("/ping", h.HandlePing)
}
