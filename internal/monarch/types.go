package monarch

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RecurringItem is one entry from the upstream recurring-obligation list,
// already translated out of the raw GraphQL payload.
type RecurringItem struct {
	ID          string
	Name        string
	Amount      decimal.Decimal
	Frequency   string
	NextDueDate string // "2006-01-02", empty when unknown
	Active      bool
}

// Category is a Monarch budget category (the "bucket" balances and budgets
// are recorded against).
type Category struct {
	ID      string
	Name    string
	Icon    string
	GroupID string
}

// graphQLRequest is the wire shape of a GraphQL call.
type graphQLRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the wire shape of a GraphQL reply.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// recurringStreamPayload mirrors the upstream recurring-stream shape. The
// amount field is polymorphic (number or string) across API versions, so it
// stays raw until parsed.
type recurringStreamPayload struct {
	Stream struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Amount    json.RawMessage `json:"amount"`
		Frequency string          `json:"frequency"`
		IsActive  bool            `json:"isActive"`
	} `json:"stream"`
	NextForecastedTransaction struct {
		Date string `json:"date"`
	} `json:"nextForecastedTransaction"`
}

type categoryPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Group struct {
		ID string `json:"id"`
	} `json:"group"`
}
