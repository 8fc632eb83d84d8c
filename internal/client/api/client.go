package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/autopark/pkg/api"
)

// DefaultTimeout is the per-request timeout of the underlying http.Client.
const DefaultTimeout = 30 * time.Second

// Client представляет HTTP клиент для взаимодействия с REST API
// Все пути передаются относительно baseURL.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  slog.Default(),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the URL all endpoints are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Options describes a single request.
// Body is either a JSON-serializable value or a *Form.
type Options struct {
	Headers http.Header
	Body    any
	Method  string
}

// Request выполняет HTTP запрос к endpoint и декодирует JSON ответ в result.
//
// Non-2xx responses and transport failures are returned as *Error.
// An empty or non-JSON 2xx body leaves result untouched.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options, result any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var (
		bodyReader  io.Reader
		contentType string
	)
	switch body := opts.Body.(type) {
	case nil:
	case *Form:
		// boundary выбирает multipart writer, JSON заголовок не ставим
		reader, ct, err := body.encode()
		if err != nil {
			return fmt.Errorf("failed to encode multipart body: %w", err)
		}
		bodyReader, contentType = reader, ct
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader, contentType = bytes.NewReader(jsonData), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range opts.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.New().String())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "api request failed",
			slog.String("method", method),
			slog.String("path", endpoint),
			slog.Any("error", err))
		return &Error{Message: err.Error(), err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Message: fmt.Sprintf("failed to read response body: %v", err), err: err}
	}

	c.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("path", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newResponseError(resp.StatusCode, respBody)
	}

	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if !json.Valid(respBody) {
		c.logger.DebugContext(ctx, "ignoring non-JSON response body",
			slog.String("path", endpoint),
			slog.Int("status", resp.StatusCode))
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// AuthenticatedRequest добавляет заголовок Authorization: Bearer <token> и вызывает Request.
// The caller's headers are copied, never modified.
func (c *Client) AuthenticatedRequest(ctx context.Context, endpoint, token string, opts Options, result any) error {
	headers := opts.Headers.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	headers.Set("Authorization", "Bearer "+token)
	opts.Headers = headers

	return c.Request(ctx, endpoint, opts, result)
}

// newResponseError builds an *Error from a non-2xx response.
// The JSON error message wins; otherwise the raw body text is used.
func newResponseError(status int, body []byte) *Error {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		message := errResp.Message
		if message == "" {
			message = errResp.Error
		}
		if message != "" {
			return &Error{Message: message, Code: errResp.Code, Status: status}
		}
	}

	message := string(body)
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Message: message, Status: status}
}
