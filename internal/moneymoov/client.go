// Package moneymoov wraps the remote MoneyMoov payments API. The service is
// a presentation layer over this API: payruns and accounts are loaded from
// it and authorization requests are transmitted back to it.
package moneymoov

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/paydesk-hq/paydesk/internal/payrun"
)

// ErrNotFound is returned for 404 responses from the API.
var ErrNotFound = errors.New("moneymoov: not found")

// APIError carries a non-2xx response from the API.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("moneymoov: %d %s: %s", e.Status, e.Title, e.Detail)
}

// Client talks to the MoneyMoov REST API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client for the given base URL, e.g.
// https://api.nofrixion.com/api/v1.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetPayrun fetches a single payrun with its invoices.
func (c *Client) GetPayrun(ctx context.Context, payrunID uuid.UUID) (payrun.Payrun, error) {
	var out payrun.Payrun
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/payruns/%s", payrunID), nil, &out)
	return out, err
}

// ListPayruns fetches a page of the merchant's payruns.
func (c *Client) ListPayruns(ctx context.Context, merchantID uuid.UUID, page, size int) (payrun.Page, error) {
	q := url.Values{}
	q.Set("merchantID", merchantID.String())
	if page > 0 {
		q.Set("pageNumber", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("pageSize", strconv.Itoa(size))
	}
	var out payrun.Page
	err := c.do(ctx, http.MethodGet, "/payruns?"+q.Encode(), nil, &out)
	return out, err
}

// ListAccounts fetches the merchant's disbursement accounts.
func (c *Client) ListAccounts(ctx context.Context, merchantID uuid.UUID) ([]payrun.Account, error) {
	var out struct {
		Accounts []payrun.Account `json:"accounts"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/merchants/%s/accounts", merchantID), nil, &out)
	return out.Accounts, err
}

// SubmitAuthorization transmits a composed authorization request.
func (c *Client) SubmitAuthorization(ctx context.Context, req payrun.AuthorizationRequest) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/payruns/%s/authorise", req.PayrunID), req, nil)
}

// RenamePayrun persists a payrun's new display name.
func (c *Client) RenamePayrun(ctx context.Context, payrunID uuid.UUID, name string) error {
	body := map[string]string{"name": name}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/payruns/%s/name", payrunID), body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("moneymoov: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("moneymoov: decode response: %w", err)
		}
	}
	return nil
}
