// Package remote is the HTTP client for the authoritative transaction store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/model"
	"github.com/Veraticus/reckless-spender/internal/service"
)

// Client talks to the store over its JSON API. Each call is exactly one
// request (listings page through results); nothing is retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP transport timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for the store at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid store url %q: %v", common.ErrInvalidConfig, baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: store url must be http or https: %q", common.ErrInvalidConfig, baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UploadResult is the store's answer to a statement upload.
type UploadResult struct {
	Filename              string `json:"filename"`
	Message               string `json:"message"`
	BatchID               string `json:"batch_id"`
	AccountsProcessed     int    `json:"accounts_processed"`
	TransactionsCollected int    `json:"transactions_collected"`
	TransactionsInserted  int    `json:"transactions_inserted"`
}

// UpdateField sends a single-field update for one transaction.
func (c *Client) UpdateField(ctx context.Context, transactionID int64, field model.Field, value model.FieldValue) error {
	intent := model.EditIntent{TransactionID: transactionID, Field: field, Value: value}
	if err := intent.Validate(); err != nil {
		return common.NewRejected(err.Error())
	}
	_, err := c.UpdateTransaction(ctx, transactionID, intent.Update())
	return err
}

// UpdateTransaction sends a partial update and returns the stored record.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, update model.TransactionUpdate) (*model.Transaction, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}

	var txn model.Transaction
	path := "/transactions/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, "application/json", bytes.NewReader(body), &txn); err != nil {
		return nil, err
	}

	slog.Debug("updated transaction", "id", id, "payload", string(body))
	return &txn, nil
}

// ListTransactions fetches every transaction, newest first.
func (c *Client) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	var all []model.Transaction
	filter := service.TransactionFilter{Limit: service.MaxTransactionLimit}
	for {
		page, err := c.ListTransactionsPage(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < filter.Limit {
			break
		}
		filter.Offset += len(page)
	}
	if all == nil {
		all = []model.Transaction{}
	}
	return all, nil
}

// ListTransactionsPage fetches one page of transactions matching filter.
func (c *Client) ListTransactionsPage(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	q := url.Values{}
	if filter.StartDate != nil {
		q.Set("start_date", filter.StartDate.Format(model.DateLayout))
	}
	if filter.EndDate != nil {
		q.Set("end_date", filter.EndDate.Format(model.DateLayout))
	}
	if filter.AccountID != nil {
		q.Set("account_id", strconv.FormatInt(*filter.AccountID, 10))
	}
	if filter.CategoryID != nil {
		q.Set("category_id", strconv.FormatInt(*filter.CategoryID, 10))
	}
	if filter.Reconciled != nil {
		q.Set("reconciled", strconv.FormatBool(*filter.Reconciled))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	path := "/transactions/"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var txns []model.Transaction
	if err := c.do(ctx, http.MethodGet, path, "", nil, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if err := c.do(ctx, http.MethodGet, "/categories/", "", nil, &cats); err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return cats, nil
}

// CreateCategory adds a custom category, or returns the existing one with that name.
func (c *Client) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to encode category: %w", err)
	}
	var cat model.Category
	if err := c.do(ctx, http.MethodPost, "/categories/", "application/json", bytes.NewReader(body), &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// UploadOFX posts a statement file to the store's ingestion endpoint.
func (c *Client) UploadOFX(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload body: %w", err)
	}

	var result UploadResult
	if err := c.do(ctx, http.MethodPost, "/upload/ofx", mw.FormDataContentType(), &buf, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs one request and decodes a 2xx JSON body into out. Any other
// status becomes a *common.StoreError classified by status.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.NewTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.NewTransport(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &common.StoreError{
			Kind:   common.KindForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Reason: errorReason(data, resp.Status),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return common.NewTransport(fmt.Errorf("failed to decode response from %s %s: %w", method, path, err))
	}
	return nil
}

// errorReason extracts the machine-readable reason from an error body. The
// store answers {"detail": "..."}; validation errors may carry a list.
func errorReason(body []byte, fallback string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var detail string
		if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
			return detail
		}
		if len(payload.Detail) > 0 && string(payload.Detail) != "null" {
			return string(payload.Detail)
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return fallback
}
