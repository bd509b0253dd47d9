package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPGateway отправляет уведомления во внешний сервис по HTTP.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPGateway создаёт клиент шлюза уведомлений по указанному адресу.
func NewHTTPGateway(baseURL string) *HTTPGateway {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &HTTPGateway{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// SendOrderConfirmation отправляет уведомление о подтверждении заказа.
// Ответ 2xx без тела считается успешным; ответ 2xx с телом разбирается как Result.
func (g *HTTPGateway) SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) (Result, error) {
	if g == nil || g.baseURL == "" {
		return Result{}, fmt.Errorf("notification gateway not configured")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	url := g.baseURL + "/api/notifications/order-confirmation"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Result{Success: false, Error: "rate limited, retry after " + resp.Header.Get("Retry-After")}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Result{Success: true}, nil
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	return result, nil
}
