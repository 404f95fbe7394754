package executor

import (
	"context"
	"net/http"

	"payflow/runtime"
	"payflow/service"
)

type mintInput struct {
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Account        string  `json:"account"`
	Currency       string  `json:"currency"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// Mint issues new supply, optionally crediting a named treasury account.
type Mint struct {
	client *service.Client
}

func (e *Mint) Validate(params map[string]any) error {
	return requireParams(params, "amount")
}

func (e *Mint) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in mintInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	body := pruneEmpty(map[string]any{
		"amount":          in.Amount,
		"account":         in.Account,
		"currency":        in.Currency,
		"idempotency_key": in.IdempotencyKey,
	})

	return runVerb(ctx, e.client, cred, "mint", http.MethodPost, "/v1/treasury/mint", nil, body, map[string]string{
		"tx_id":        "tx_id",
		"total_supply": "total_supply",
	})
}

type burnInput struct {
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Currency       string  `json:"currency"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// Burn retires supply from the treasury account.
type Burn struct {
	client *service.Client
}

func (e *Burn) Validate(params map[string]any) error {
	return requireParams(params, "amount")
}

func (e *Burn) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in burnInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	body := pruneEmpty(map[string]any{
		"amount":          in.Amount,
		"currency":        in.Currency,
		"idempotency_key": in.IdempotencyKey,
	})

	return runVerb(ctx, e.client, cred, "burn", http.MethodPost, "/v1/treasury/burn", nil, body, map[string]string{
		"tx_id":        "tx_id",
		"total_supply": "total_supply",
	})
}

type totalSupplyInput struct {
	Currency string `json:"currency"`
}

// TotalSupply reads the outstanding supply.
type TotalSupply struct {
	client *service.Client
}

func (e *TotalSupply) Validate(params map[string]any) error {
	return nil
}

func (e *TotalSupply) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in totalSupplyInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	query := map[string]string{}
	if in.Currency != "" {
		query["currency"] = in.Currency
	}

	return runVerb(ctx, e.client, cred, "total_supply", http.MethodGet, "/v1/treasury/supply", query, nil, map[string]string{
		"total_supply": "total_supply",
		"currency":     "currency",
	})
}
