package monarch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-token", WithBaseURL(srv.URL), WithRetry(1, time.Millisecond))
	require.NotNil(t, c)
	return c
}

func TestNewClientRejectsEmptyToken(t *testing.T) {
	assert.Nil(t, NewClient(""))
	assert.Nil(t, NewClient("   "))
}

func TestRecurringParsesStreams(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))

		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "RecurringStreams", req.OperationName)

		_, _ = w.Write([]byte(`{"data": {"recurringTransactionStreams": [
			{"stream": {"id": "rec-1", "name": "Netflix", "amount": 15.99, "frequency": "monthly", "isActive": true},
			 "nextForecastedTransaction": {"date": "2026-10-01"}},
			{"stream": {"id": "rec-2", "name": "Insurance", "amount": "600", "frequency": "yearly", "isActive": true},
			 "nextForecastedTransaction": {"date": "2026-12-15"}}
		]}}`))
	})

	items, err := c.Recurring(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "rec-1", items[0].ID)
	assert.True(t, items[0].Amount.Equal(decimal.RequireFromString("15.99")))
	assert.Equal(t, "monthly", items[0].Frequency)
	assert.Equal(t, "2026-10-01", items[0].NextDueDate)

	// String-typed amount parses too.
	assert.True(t, items[1].Amount.Equal(decimal.RequireFromString("600")))
}

func TestUnauthorizedStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Recurring(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRateLimitedStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Recurring(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGraphQLErrorSurfaced(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": null, "errors": [{"message": "category not found"}]}`))
	})

	err := c.RenameCategory(context.Background(), "cat-1", "New Name", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category not found")
}

func TestRetryRecoversFromServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data": {"categories": []}}`))
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	require.NotNil(t, c)

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cats)
	assert.Equal(t, 2, calls)
}

func TestRetryDoesNotRepeatPermanentFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	_, err := c.Recurring(context.Background())

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, calls)
}

func TestCreateCategoryReturnsID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"createCategory": {"category": {"id": "cat-42"}}}}`))
	})

	id, err := c.CreateCategory(context.Background(), "grp-1", "Netflix", "📺")
	require.NoError(t, err)
	assert.Equal(t, "cat-42", id)
}

func TestCategoryBalance(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"category": {"id": "cat-1",
			"rolloverPeriod": {"currentBalance": 42.50}}}}`))
	})

	bal, err := c.CategoryBalance(context.Background(), "cat-1")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("42.5")))
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`15.99`, "15.99", true},
		{`"15.99"`, "15.99", true},
		{`"$1200"`, "1200", true},
		{`null`, "0", false},
		{`"n/a"`, "0", false},
		{``, "0", false},
	}

	for _, tc := range cases {
		got, ok := parseAmount(json.RawMessage(tc.raw))
		assert.Equal(t, tc.ok, ok, "raw %q", tc.raw)
		if tc.ok {
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "raw %q -> %s", tc.raw, got)
		}
	}
}

func TestRateLimitRetriedAsTransient(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data": {"categories": []}}`))
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	_, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
