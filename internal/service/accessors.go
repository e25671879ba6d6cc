package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Default transaction window, matching the upstream's accepted extremes.
const (
	defaultTransactionsStart = "2007-01-01"
	defaultTransactionsEnd   = "2030-01-01"
)

// Accessors are the thin typed data calls built atop the Executor. No
// business logic lives here; the payload schemas belong to the upstream.
type Accessors struct {
	executor *Executor
}

// NewAccessors builds the data accessors.
func NewAccessors(executor *Executor) *Accessors {
	return &Accessors{executor: executor}
}

// Accounts returns the accounts overview payload.
func (a *Accessors) Accounts(ctx context.Context) (json.RawMessage, error) {
	return a.executor.Execute(ctx, http.MethodPost, pathGetAccounts, nil)
}

// Transactions returns the user transactions between startDate and endDate
// (YYYY-MM-DD, inclusive). Empty bounds default to a window wide enough to
// cover the account's full history.
func (a *Accessors) Transactions(ctx context.Context, startDate, endDate string) (json.RawMessage, error) {
	if startDate == "" {
		startDate = defaultTransactionsStart
	}
	if endDate == "" {
		endDate = defaultTransactionsEnd
	}

	data, err := a.executor.Execute(ctx, http.MethodPost, pathGetTransactions, url.Values{
		"startDate": {startDate},
		"endDate":   {endDate},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Transactions json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode transactions payload: %w", err)
	}
	return payload.Transactions, nil
}
