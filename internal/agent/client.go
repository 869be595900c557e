// Package agent реализует клиент внешнего сервиса создания агентов поддержки.
// Сервис принимает список URL с документацией и возвращает номер телефона агента.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/InQaaaaGit/supportgen/internal/models"
	"go.uber.org/zap"
)

// DefaultEndpoint адрес сервиса создания агентов по умолчанию
const DefaultEndpoint = "http://localhost:5000/create_agent"

const maxErrorBodySize = 512

var (
	// ErrTransport сетевая ошибка при обращении к сервису
	ErrTransport = errors.New("agent service transport error")
	// ErrUnexpectedStatus сервис ответил кодом вне диапазона 2xx
	ErrUnexpectedStatus = errors.New("agent service returned unexpected status")
	// ErrMalformedResponse тело ответа не содержит номер телефона
	ErrMalformedResponse = errors.New("agent service returned malformed response")
)

// Creator создает агента по списку URL и возвращает сырой номер телефона
type Creator interface {
	CreateAgent(ctx context.Context, urls []string) (string, error)
}

// Client HTTP клиент сервиса создания агентов
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient создает клиента. Таймаут на стороне клиента не задается:
// создание агента может длиться сколько угодно.
func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Endpoint возвращает адрес сервиса
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CreateAgent отправляет список URL одним POST запросом. Повторов нет.
func (c *Client) CreateAgent(ctx context.Context, urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}

	payload, err := json.Marshal(models.CreateAgentRequest{URLs: urls})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Info("Creating agent", zap.String("endpoint", c.endpoint), zap.Int("urls", len(urls)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("Error closing response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(body))
	}

	var out models.CreateAgentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.PhoneNumber == nil || *out.PhoneNumber == "" {
		return "", fmt.Errorf("%w: missing phone_number", ErrMalformedResponse)
	}

	return *out.PhoneNumber, nil
}
