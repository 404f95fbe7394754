package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"payflow/auth"
	"payflow/runtime"
	"payflow/service"
)

type balanceInput struct {
	Obligor  string `json:"obligor" validate:"required"`
	Currency string `json:"currency"`
}

// Balance reads the balance of an account address.
type Balance struct {
	client *service.Client
}

func (e *Balance) Validate(params map[string]any) error {
	return requireParams(params, "obligor")
}

func (e *Balance) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in balanceInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	query := map[string]string{"obligor": in.Obligor}
	if in.Currency != "" {
		query["currency"] = in.Currency
	}

	return runVerb(ctx, e.client, cred, "balance", http.MethodGet, "/v1/accounts/balance", query, nil, map[string]string{
		"balance":  "balance",
		"currency": "currency",
	})
}

// ListGroups lists the delegation groups the acting user belongs to. This
// is the one operation served by the identity service rather than the
// payments service.
type ListGroups struct {
	gateway *auth.Gateway
}

func (e *ListGroups) Validate(params map[string]any) error {
	return nil
}

func (e *ListGroups) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	if cred == nil {
		return nil, fmt.Errorf("list_groups requires a user")
	}

	groups, err := e.gateway.Groups(ctx, cred)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(groups)
	if err != nil {
		return nil, fmt.Errorf("encode groups: %w", err)
	}

	return map[string]string{
		"count":  strconv.Itoa(len(groups)),
		"groups": string(encoded),
	}, nil
}
