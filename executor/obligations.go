package executor

import (
	"context"
	"net/http"

	"payflow/runtime"
	"payflow/service"
)

const createObligationDocument = `mutation CreateObligation($input: CreateObligationInput!) {
  createObligation(input: $input) {
    obligationId
    status
  }
}`

type createObligationInput struct {
	Beneficiary string  `json:"beneficiary" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Obligor     string  `json:"obligor"`
	Currency    string  `json:"currency"`
	DueDate     string  `json:"due_date"`
	Memo        string  `json:"memo"`
}

// CreateObligation records a payment promise. The obligor defaults to the
// acting user when not declared.
type CreateObligation struct {
	client *service.Client
}

func (e *CreateObligation) Validate(params map[string]any) error {
	return requireParams(params, "beneficiary", "amount")
}

func (e *CreateObligation) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in createObligationInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	vars := map[string]any{"input": pruneEmpty(map[string]any{
		"beneficiary": in.Beneficiary,
		"amount":      in.Amount,
		"obligor":     in.Obligor,
		"currency":    in.Currency,
		"dueDate":     in.DueDate,
		"memo":        in.Memo,
	})}

	return runQuery(ctx, e.client, cred, "create_obligation", createObligationDocument, vars, map[string]string{
		"obligation_id": "createObligation.obligationId",
		"status":        "createObligation.status",
	})
}

const acceptObligationDocument = `mutation AcceptObligation($id: ID!) {
  acceptObligation(id: $id) {
    obligationId
    status
  }
}`

type obligationRefInput struct {
	ObligationID string `json:"obligation_id" validate:"required"`
}

// AcceptObligation confirms an obligation as its beneficiary.
type AcceptObligation struct {
	client *service.Client
}

func (e *AcceptObligation) Validate(params map[string]any) error {
	return requireParams(params, "obligation_id")
}

func (e *AcceptObligation) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in obligationRefInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	return runQuery(ctx, e.client, cred, "accept_obligation", acceptObligationDocument,
		map[string]any{"id": in.ObligationID},
		map[string]string{
			"obligation_id": "acceptObligation.obligationId",
			"status":        "acceptObligation.status",
		})
}

const transferObligationDocument = `mutation TransferObligation($id: ID!, $to: String!) {
  transferObligation(id: $id, to: $to) {
    obligationId
    status
  }
}`

type transferObligationInput struct {
	ObligationID string `json:"obligation_id" validate:"required"`
	To           string `json:"to" validate:"required"`
}

// TransferObligation reassigns an obligation to a new beneficiary.
type TransferObligation struct {
	client *service.Client
}

func (e *TransferObligation) Validate(params map[string]any) error {
	return requireParams(params, "obligation_id", "to")
}

func (e *TransferObligation) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in transferObligationInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	return runQuery(ctx, e.client, cred, "transfer_obligation", transferObligationDocument,
		map[string]any{"id": in.ObligationID, "to": in.To},
		map[string]string{
			"obligation_id": "transferObligation.obligationId",
			"status":        "transferObligation.status",
		})
}

const cancelObligationDocument = `mutation CancelObligation($id: ID!) {
  cancelObligation(id: $id) {
    obligationId
    status
  }
}`

// CancelObligation voids an obligation as its obligor.
type CancelObligation struct {
	client *service.Client
}

func (e *CancelObligation) Validate(params map[string]any) error {
	return requireParams(params, "obligation_id")
}

func (e *CancelObligation) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in obligationRefInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	return runQuery(ctx, e.client, cred, "cancel_obligation", cancelObligationDocument,
		map[string]any{"id": in.ObligationID},
		map[string]string{
			"obligation_id": "cancelObligation.obligationId",
			"status":        "cancelObligation.status",
		})
}

type obligationsInput struct {
	Account string `json:"account"`
	Role    string `json:"role" validate:"omitempty,oneof=obligor beneficiary"`
	Status  string `json:"status"`
}

// Obligations lists obligations visible to the acting user, optionally
// filtered by account, role, and status.
type Obligations struct {
	client *service.Client
}

func (e *Obligations) Validate(params map[string]any) error {
	return nil
}

func (e *Obligations) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in obligationsInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	query := map[string]string{}
	if in.Account != "" {
		query["account"] = in.Account
	}
	if in.Role != "" {
		query["role"] = in.Role
	}
	if in.Status != "" {
		query["status"] = in.Status
	}

	resp, err := e.client.Do(ctx, cred, http.MethodGet, "/v1/obligations", query, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &runtime.ServiceError{Operation: "obligations", Messages: resp.Messages()}
	}

	outputs := map[string]string{}
	if v, ok := resp.StringAt("obligations"); ok {
		outputs["obligations"] = v
	}
	if v, ok := resp.CountAt("obligations"); ok {
		outputs["count"] = v
	}
	return outputs, nil
}
