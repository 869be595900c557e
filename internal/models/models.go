// Package models содержит структуры запросов и ответов HTTP API
// и запись истории созданных агентов.
package models

import "time"

// CreateAgentRequest тело запроса к сервису создания агента
type CreateAgentRequest struct {
	URLs []string `json:"urls"`
}

// CreateAgentResponse ожидаемое тело ответа сервиса создания агента
type CreateAgentResponse struct {
	PhoneNumber *string `json:"phone_number"`
}

// AddURLRequest запрос на добавление URL в форму
type AddURLRequest struct {
	URL string `json:"url"`
}

// DraftRequest запрос на обновление черновика
type DraftRequest struct {
	Draft string `json:"draft"`
}

// FormResponse представление формы в JSON API
type FormResponse struct {
	URLs        []string `json:"urls"`
	Draft       string   `json:"draft"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Loading     bool     `json:"loading"`
	State       string   `json:"state"`
	Error       string   `json:"error,omitempty"`
}

// AgentRecord запись об успешно созданном агенте
type AgentRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"-"`
	URLs        []string  `json:"urls"`
	RawPhone    string    `json:"raw_phone_number"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}
