// Package executor implements one handler per operation type. A handler
// validates the declared parameters, builds the service request, and
// extracts the documented output fields for the run's output store.
package executor

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"payflow/auth"
	"payflow/runtime"
	"payflow/service"
)

var validate = validator.New()

// NewRegistry registers every operation type. Adding a type means adding a
// handler here and nowhere else.
func NewRegistry(client *service.Client, gateway *auth.Gateway) *runtime.Registry {
	r := runtime.NewRegistry()

	r.Register("deposit", &Deposit{client: client})
	r.Register("withdraw", &Withdraw{client: client})
	r.Register("instant", &Instant{client: client})
	r.Register("accept", &Accept{client: client})

	r.Register("create_obligation", &CreateObligation{client: client})
	r.Register("accept_obligation", &AcceptObligation{client: client})
	r.Register("transfer_obligation", &TransferObligation{client: client})
	r.Register("cancel_obligation", &CancelObligation{client: client})
	r.Register("obligations", &Obligations{client: client})

	r.Register("create_swap", &CreateSwap{client: client})
	r.Register("create_swap_direct", &CreateSwap{client: client, direct: true})
	r.Register("complete_swap", &CompleteSwap{client: client})
	r.Register("cancel_swap", &CancelSwap{client: client})

	r.Register("mint", &Mint{client: client})
	r.Register("burn", &Burn{client: client})
	r.Register("total_supply", &TotalSupply{client: client})

	r.Register("balance", &Balance{client: client})
	r.Register("list_groups", &ListGroups{gateway: gateway})

	return r
}

// requireParams checks that the raw declaration carries every required
// parameter key. Runs at validation time, before any network call.
func requireParams(params map[string]any, names ...string) error {
	for _, n := range names {
		if _, ok := params[n]; !ok {
			return &runtime.ValidationError{Field: n, Message: "required parameter missing"}
		}
	}
	return nil
}

// decodeInput maps resolved parameters onto a typed input struct using json
// tags, with weak type coercion so substituted string values satisfy
// numeric fields, then validates the result.
func decodeInput(params map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(params); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	if err := validate.Struct(target); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("parameter %s failed %q check", fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}

// pruneEmpty drops empty-string and nil entries so optional-but-absent
// parameters are omitted from the payload instead of sent as nulls.
func pruneEmpty(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// extractOutputs pulls the documented output fields from a response.
// Fields absent from the response are omitted rather than stored empty.
func extractOutputs(resp *service.Response, paths map[string]string) map[string]string {
	outputs := make(map[string]string, len(paths))
	for field, path := range paths {
		if v, ok := resp.StringAt(path); ok {
			outputs[field] = v
		}
	}
	return outputs
}

// runQuery dispatches a document-query call and maps the response into
// outputs, surfacing application-level rejection as a ServiceError.
func runQuery(ctx context.Context, c *service.Client, cred *runtime.Credential, op, document string, vars map[string]any, paths map[string]string) (map[string]string, error) {
	resp, err := c.Query(ctx, cred, document, vars)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &runtime.ServiceError{Operation: op, Messages: resp.Messages()}
	}
	return extractOutputs(resp, paths), nil
}

// runVerb dispatches a verb-based call the same way.
func runVerb(ctx context.Context, c *service.Client, cred *runtime.Credential, op, method, path string, query map[string]string, body any, paths map[string]string) (map[string]string, error) {
	resp, err := c.Do(ctx, cred, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &runtime.ServiceError{Operation: op, Messages: resp.Messages()}
	}
	return extractOutputs(resp, paths), nil
}
