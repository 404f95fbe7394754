package executor

import (
	"context"

	"payflow/runtime"
	"payflow/service"
)

const createSwapDocument = `mutation CreateSwap($input: CreateSwapInput!) {
  createSwap(input: $input) {
    swapId
    status
  }
}`

type createSwapInput struct {
	OfferAsset   string  `json:"offer_asset" validate:"required"`
	OfferAmount  float64 `json:"offer_amount" validate:"required,gt=0"`
	WantAsset    string  `json:"want_asset" validate:"required"`
	WantAmount   float64 `json:"want_amount" validate:"required,gt=0"`
	Counterparty string  `json:"counterparty"`
	Memo         string  `json:"memo"`
}

// CreateSwap proposes an asset swap. The plain variant is an open offer any
// holder may complete; the direct variant is addressed to one counterparty
// and requires the counterparty parameter.
type CreateSwap struct {
	client *service.Client
	direct bool
}

func (e *CreateSwap) Validate(params map[string]any) error {
	required := []string{"offer_asset", "offer_amount", "want_asset", "want_amount"}
	if e.direct {
		required = append(required, "counterparty")
	}
	return requireParams(params, required...)
}

func (e *CreateSwap) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in createSwapInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	op := "create_swap"
	if e.direct {
		op = "create_swap_direct"
	}

	vars := map[string]any{"input": pruneEmpty(map[string]any{
		"offerAsset":   in.OfferAsset,
		"offerAmount":  in.OfferAmount,
		"wantAsset":    in.WantAsset,
		"wantAmount":   in.WantAmount,
		"counterparty": in.Counterparty,
		"memo":         in.Memo,
	})}

	return runQuery(ctx, e.client, cred, op, createSwapDocument, vars, map[string]string{
		"swap_id": "createSwap.swapId",
		"status":  "createSwap.status",
	})
}

const completeSwapDocument = `mutation CompleteSwap($id: ID!) {
  completeSwap(id: $id) {
    swapId
    status
  }
}`

type swapRefInput struct {
	SwapID string `json:"swap_id" validate:"required"`
}

// CompleteSwap fills a pending swap as the counterparty.
type CompleteSwap struct {
	client *service.Client
}

func (e *CompleteSwap) Validate(params map[string]any) error {
	return requireParams(params, "swap_id")
}

func (e *CompleteSwap) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in swapRefInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	return runQuery(ctx, e.client, cred, "complete_swap", completeSwapDocument,
		map[string]any{"id": in.SwapID},
		map[string]string{
			"swap_id": "completeSwap.swapId",
			"status":  "completeSwap.status",
		})
}

const cancelSwapDocument = `mutation CancelSwap($id: ID!) {
  cancelSwap(id: $id) {
    swapId
    status
  }
}`

// CancelSwap withdraws a pending swap as its creator.
type CancelSwap struct {
	client *service.Client
}

func (e *CancelSwap) Validate(params map[string]any) error {
	return requireParams(params, "swap_id")
}

func (e *CancelSwap) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in swapRefInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	return runQuery(ctx, e.client, cred, "cancel_swap", cancelSwapDocument,
		map[string]any{"id": in.SwapID},
		map[string]string{
			"swap_id": "cancelSwap.swapId",
			"status":  "cancelSwap.status",
		})
}
