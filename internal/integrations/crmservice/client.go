package crmservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с CRM (сделки и продукты каталога)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента CRM
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetDeal получает сделку по ID (воронка и заявленная площадка)
func (c *Client) GetDeal(ctx context.Context, dealID int64) (*Deal, error) {
	url := fmt.Sprintf("%s/internal/deals/%d", c.baseURL, dealID)

	var deal Deal
	if err := c.get(ctx, url, ErrDealNotFound, &deal); err != nil {
		return nil, err
	}

	return &deal, nil
}

// GetProduct получает продукт каталога по ссылке
// (название и дефолтное время начала/окончания занятий)
func (c *Client) GetProduct(ctx context.Context, ref string) (*Product, error) {
	url := fmt.Sprintf("%s/internal/products/%s", c.baseURL, ref)

	var product Product
	if err := c.get(ctx, url, ErrProductNotFound, &product); err != nil {
		return nil, err
	}

	return &product, nil
}

// get выполняет GET-запрос и декодирует ответ
// notFound возвращается как есть при статусе 404
func (c *Client) get(ctx context.Context, url string, notFound error, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return notFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}
