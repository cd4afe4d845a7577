// Package monarch provides a client for the Monarch Money GraphQL API:
// the recurring-obligation list, budget categories, and monthly budget
// amounts. Raw API payloads are translated into typed records here; untyped
// maps never leave this package.
package monarch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://api.monarchmoney.com/graphql"
	requestTimeout = 15 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
)

var (
	// ErrUnauthorized indicates the token is expired or invalid.
	ErrUnauthorized = errors.New("monarch: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("monarch: rate limited")
)

// Client calls the Monarch Money GraphQL API.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	retry   retryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRetry overrides the transient-failure retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.retry = retryPolicy{maxAttempts: maxAttempts, baseDelay: baseDelay}
	}
}

// NewClient creates a client for the given API token. Returns nil if the
// token is empty.
func NewClient(token string, opts ...Option) *Client {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{},
		retry:   defaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recurring returns the full upstream obligation list in one call.
func (c *Client) Recurring(ctx context.Context) ([]RecurringItem, error) {
	const query = `query RecurringStreams {
  recurringTransactionStreams {
    stream { id name amount frequency isActive }
    nextForecastedTransaction { date }
  }
}`

	var out struct {
		Streams []recurringStreamPayload `json:"recurringTransactionStreams"`
	}
	if err := c.do(ctx, "RecurringStreams", query, nil, &out); err != nil {
		return nil, err
	}

	items := make([]RecurringItem, 0, len(out.Streams))
	for _, p := range out.Streams {
		amount, ok := parseAmount(p.Stream.Amount)
		if !ok {
			continue
		}
		items = append(items, RecurringItem{
			ID:          p.Stream.ID,
			Name:        p.Stream.Name,
			Amount:      amount,
			Frequency:   p.Stream.Frequency,
			NextDueDate: p.NextForecastedTransaction.Date,
			Active:      p.Stream.IsActive,
		})
	}
	return items, nil
}

// Categories returns all budget categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	const query = `query Categories {
  categories { id name icon group { id } }
}`

	var out struct {
		Categories []categoryPayload `json:"categories"`
	}
	if err := c.do(ctx, "Categories", query, nil, &out); err != nil {
		return nil, err
	}

	cats := make([]Category, 0, len(out.Categories))
	for _, p := range out.Categories {
		cats = append(cats, Category{ID: p.ID, Name: p.Name, Icon: p.Icon, GroupID: p.Group.ID})
	}
	return cats, nil
}

// CreateCategory creates a budget category in the given group and returns
// its ID.
func (c *Client) CreateCategory(ctx context.Context, group, name, icon string) (string, error) {
	const query = `mutation CreateCategory($input: CreateCategoryInput!) {
  createCategory(input: $input) { category { id } }
}`

	var out struct {
		CreateCategory struct {
			Category struct {
				ID string `json:"id"`
			} `json:"category"`
		} `json:"createCategory"`
	}
	vars := map[string]any{"input": map[string]any{
		"group": group,
		"name":  name,
		"icon":  icon,
	}}
	if err := c.do(ctx, "CreateCategory", query, vars, &out); err != nil {
		return "", err
	}
	if out.CreateCategory.Category.ID == "" {
		return "", errors.New("monarch: create category returned no id")
	}
	return out.CreateCategory.Category.ID, nil
}

// RenameCategory updates a category's name and icon.
func (c *Client) RenameCategory(ctx context.Context, id, name, icon string) error {
	const query = `mutation UpdateCategory($input: UpdateCategoryInput!) {
  updateCategory(input: $input) { category { id } }
}`

	vars := map[string]any{"input": map[string]any{
		"id":   id,
		"name": name,
		"icon": icon,
	}}
	return c.do(ctx, "UpdateCategory", query, vars, nil)
}

// DeleteCategory deletes a budget category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	const query = `mutation DeleteCategory($id: UUID!) {
  deleteCategory(id: $id) { deleted }
}`

	return c.do(ctx, "DeleteCategory", query, map[string]any{"id": id}, nil)
}

// SetBudget sets a category's budgeted amount for the given month. Monarch
// budgets are month-scoped; the first of the month addresses the row.
func (c *Client) SetBudget(ctx context.Context, categoryID string, month time.Time, amount decimal.Decimal) error {
	const query = `mutation UpdateBudgetItem($input: UpdateOrCreateBudgetItemMutationInput!) {
  updateOrCreateBudgetItem(input: $input) { budgetItem { id } }
}`

	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	vars := map[string]any{"input": map[string]any{
		"categoryId":    categoryID,
		"startDate":     start.Format("2006-01-02"),
		"timeframe":     "month",
		"amount":        amount.InexactFloat64(),
		"applyToFuture": false,
	}}
	return c.do(ctx, "UpdateBudgetItem", query, vars, nil)
}

// CategoryBalance returns a category's current rollover balance.
func (c *Client) CategoryBalance(ctx context.Context, categoryID string) (decimal.Decimal, error) {
	const query = `query CategoryBalance($id: UUID!) {
  category(id: $id) { id rolloverPeriod { startingBalance currentBalance } }
}`

	var out struct {
		Category struct {
			ID             string `json:"id"`
			RolloverPeriod struct {
				CurrentBalance json.RawMessage `json:"currentBalance"`
			} `json:"rolloverPeriod"`
		} `json:"category"`
	}
	if err := c.do(ctx, "CategoryBalance", query, map[string]any{"id": categoryID}, &out); err != nil {
		return decimal.Zero, err
	}

	balance, ok := parseAmount(out.Category.RolloverPeriod.CurrentBalance)
	if !ok {
		return decimal.Zero, nil
	}
	return balance, nil
}

// do runs one GraphQL operation with retry, decoding the data payload into
// out when non-nil.
func (c *Client) do(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	return c.retry.run(ctx, func() error {
		return c.doOnce(ctx, operation, query, variables, out)
	})
}

func (c *Client) doOnce(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(graphQLRequest{
		OperationName: operation,
		Query:         query,
		Variables:     variables,
	})
	if err != nil {
		return fmt.Errorf("monarch: encoding %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("monarch: creating %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &transientError{fmt.Errorf("monarch: %s request failed: %w", operation, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return &transientError{ErrRateLimited}
	}
	if resp.StatusCode >= 500 {
		return &transientError{fmt.Errorf("monarch: %s returned status %d", operation, resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("monarch: %s returned unexpected status %d", operation, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &transientError{fmt.Errorf("monarch: reading %s response: %w", operation, err)}
	}

	var gql graphQLResponse
	if err := json.Unmarshal(raw, &gql); err != nil {
		return fmt.Errorf("monarch: parsing %s response: %w", operation, err)
	}
	if len(gql.Errors) > 0 {
		return fmt.Errorf("monarch: %s failed: %s", operation, gql.Errors[0].Message)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gql.Data, out); err != nil {
		return fmt.Errorf("monarch: decoding %s data: %w", operation, err)
	}
	return nil
}

// parseAmount handles the polymorphic amount field: number (15.99) or
// string ("15.99", "$15.99").
func parseAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return decimal.NewFromFloat(f), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimPrefix(strings.TrimSpace(s), "$")
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			if d, derr := decimal.NewFromString(s); derr == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}
