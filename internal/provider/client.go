package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/Boostgram/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Config — конфигурация провайдер-клиента.
// Передаётся явно в конструктор: никаких process-wide синглтонов.
type Config struct {
	// BaseURL — корень API провайдера. Пустой — вызовы возвращают
	// ErrNotConfigured.
	BaseURL string

	// APIKey — ключ доступа, уходит в заголовок X-Api-Key.
	APIKey string

	// Timeout — таймаут одного запроса (default: 30s).
	Timeout time.Duration
}

// Client — клиент upstream fulfillment-провайдера.
//
// Возвращает нормализованные ответы: non-2xx тела интерпретируются
// тем же извлечением ошибок, что и обычные ответы, и превращаются
// в Normalized{State: failed}. error возвращается только для
// конфигурационных и транспортных сбоев.
type Client struct {
	cfg    Config
	httpc  *http.Client
	logger *slog.Logger
}

// New создаёт новый Client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// SubmitRequest — параметры отправки заказа провайдеру.
type SubmitRequest struct {
	// OrderRef — наш идентификатор заказа (для идемпотентности на
	// стороне провайдера).
	OrderRef string `json:"order_ref"`

	// ServiceID — услуга провайдера.
	ServiceID int64 `json:"service"`

	// Link — целевая ссылка.
	Link string `json:"link"`

	// Quantity — количество единиц.
	Quantity int `json:"quantity"`
}

// SubmitOrder отправляет заказ провайдеру.
func (c *Client) SubmitOrder(ctx context.Context, req SubmitRequest) (*Normalized, error) {
	return c.do(ctx, http.MethodPost, "/api/v2/orders", req, req.OrderRef)
}

// OrderStatus запрашивает статус заказа у провайдера.
func (c *Client) OrderStatus(ctx context.Context, providerOrderID string) (*Normalized, error) {
	path := "/api/v2/orders/" + providerOrderID
	return c.do(ctx, http.MethodGet, path, nil, providerOrderID)
}

// do выполняет запрос и нормализует ответ.
func (c *Client) do(ctx context.Context, method, path string, body any, fallbackTaskID string) (*Normalized, error) {
	if c.cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal body: %v", ErrRequest, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrRequest, err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrRequest, err)
	}

	var raw map[string]any
	decodeErr := json.Unmarshal(respBody, &raw)
	if decodeErr != nil {
		raw = map[string]any{}
	}

	// Non-2xx — неуспех; тело интерпретируется тем же извлечением ошибок.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg := ExtractError(raw)
		if errMsg == "" {
			errMsg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		c.logger.Debug("provider returned error status",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"error", errMsg,
		)
		n := Normalize(raw, fallbackTaskID)
		n.State = domain.StateFailed
		n.OK = false
		n.Error = errMsg
		return n, nil
	}

	// 2xx с нечитаемым непустым телом не считается успехом: пустая
	// raw нормализовалась бы в {state: done, ok: true}.
	if decodeErr != nil && len(bytes.TrimSpace(respBody)) > 0 {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRequest, decodeErr)
	}

	return Normalize(raw, fallbackTaskID), nil
}
