package executor

import (
	"context"

	"payflow/runtime"
	"payflow/service"
)

const depositDocument = `mutation Deposit($input: DepositInput!) {
  deposit(input: $input) {
    transferId
    status
    account { address }
  }
}`

type depositInput struct {
	Account        string  `json:"account" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Currency       string  `json:"currency"`
	Memo           string  `json:"memo"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// Deposit credits an account from an external funding source.
type Deposit struct {
	client *service.Client
}

func (e *Deposit) Validate(params map[string]any) error {
	return requireParams(params, "account", "amount")
}

func (e *Deposit) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in depositInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	vars := map[string]any{"input": pruneEmpty(map[string]any{
		"account":        in.Account,
		"amount":         in.Amount,
		"currency":       in.Currency,
		"memo":           in.Memo,
		"idempotencyKey": in.IdempotencyKey,
	})}

	return runQuery(ctx, e.client, cred, "deposit", depositDocument, vars, map[string]string{
		"transfer_id":     "deposit.transferId",
		"account_address": "deposit.account.address",
		"status":          "deposit.status",
	})
}

const withdrawDocument = `mutation Withdraw($input: WithdrawInput!) {
  withdraw(input: $input) {
    transferId
    status
    account { address }
  }
}`

type withdrawInput struct {
	Account        string  `json:"account" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Currency       string  `json:"currency"`
	Memo           string  `json:"memo"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// Withdraw debits an account toward an external destination.
type Withdraw struct {
	client *service.Client
}

func (e *Withdraw) Validate(params map[string]any) error {
	return requireParams(params, "account", "amount")
}

func (e *Withdraw) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in withdrawInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	vars := map[string]any{"input": pruneEmpty(map[string]any{
		"account":        in.Account,
		"amount":         in.Amount,
		"currency":       in.Currency,
		"memo":           in.Memo,
		"idempotencyKey": in.IdempotencyKey,
	})}

	return runQuery(ctx, e.client, cred, "withdraw", withdrawDocument, vars, map[string]string{
		"transfer_id":     "withdraw.transferId",
		"account_address": "withdraw.account.address",
		"status":          "withdraw.status",
	})
}

const instantDocument = `mutation InstantTransfer($input: InstantTransferInput!) {
  instantTransfer(input: $input) {
    transferId
    status
    recipient { address }
  }
}`

type instantInput struct {
	To             string  `json:"to" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Currency       string  `json:"currency"`
	Memo           string  `json:"memo"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// Instant moves funds from the acting user to a recipient in one step, with
// no acceptance round-trip.
type Instant struct {
	client *service.Client
}

func (e *Instant) Validate(params map[string]any) error {
	return requireParams(params, "to", "amount")
}

func (e *Instant) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in instantInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	vars := map[string]any{"input": pruneEmpty(map[string]any{
		"to":             in.To,
		"amount":         in.Amount,
		"currency":       in.Currency,
		"memo":           in.Memo,
		"idempotencyKey": in.IdempotencyKey,
	})}

	return runQuery(ctx, e.client, cred, "instant", instantDocument, vars, map[string]string{
		"transfer_id":     "instantTransfer.transferId",
		"account_address": "instantTransfer.recipient.address",
		"status":          "instantTransfer.status",
	})
}

const acceptDocument = `mutation AcceptTransfer($id: ID!) {
  acceptTransfer(id: $id) {
    transferId
    status
    account { address }
  }
}`

type acceptInput struct {
	TransferID string `json:"transfer_id" validate:"required"`
}

// Accept confirms an incoming transfer addressed to the acting user.
type Accept struct {
	client *service.Client
}

func (e *Accept) Validate(params map[string]any) error {
	return requireParams(params, "transfer_id")
}

func (e *Accept) Execute(ctx context.Context, cred *runtime.Credential, params map[string]any) (map[string]string, error) {
	var in acceptInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	vars := map[string]any{"id": in.TransferID}

	return runQuery(ctx, e.client, cred, "accept", acceptDocument, vars, map[string]string{
		"transfer_id":     "acceptTransfer.transferId",
		"account_address": "acceptTransfer.account.address",
		"status":          "acceptTransfer.status",
	})
}
