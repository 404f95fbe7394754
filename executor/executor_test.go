package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"payflow/auth"
	"payflow/runtime"
	"payflow/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// queryServer fakes the payments query endpoint, capturing the request and
// answering with the given data payload.
type queryServer struct {
	data   map[string]any
	errors []map[string]any

	lastQuery string
	lastVars  map[string]any
}

func (s *queryServer) start(t *testing.T) *service.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/query", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		s.lastQuery = body.Query
		s.lastVars = body.Variables

		out := map[string]any{"data": s.data}
		if len(s.errors) > 0 {
			out["errors"] = s.errors
		}
		json.NewEncoder(w).Encode(out)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return service.NewClient(srv.URL, 5*time.Second)
}

func TestDeposit_Execute(t *testing.T) {
	server := &queryServer{data: map[string]any{
		"deposit": map[string]any{
			"transferId": "tr_1",
			"status":     "COMPLETED",
			"account":    map[string]any{"address": "acc_1"},
		},
	}}
	e := &Deposit{client: server.start(t)}

	outputs, err := e.Execute(context.Background(), &runtime.Credential{Token: "tok"}, map[string]any{
		"account": "treasury",
		"amount":  "25", // substituted values arrive as strings
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"transfer_id":     "tr_1",
		"account_address": "acc_1",
		"status":          "COMPLETED",
	}
	if !reflect.DeepEqual(outputs, want) {
		t.Errorf("outputs = %v, want %v", outputs, want)
	}

	input, _ := server.lastVars["input"].(map[string]any)
	if input["account"] != "treasury" {
		t.Errorf("input.account = %v", input["account"])
	}
	if input["amount"] != float64(25) {
		t.Errorf("input.amount = %v (%T), want 25", input["amount"], input["amount"])
	}
	if _, present := input["currency"]; present {
		t.Error("absent optional currency was sent instead of omitted")
	}
	if _, present := input["memo"]; present {
		t.Error("absent optional memo was sent instead of omitted")
	}
}

func TestDeposit_Validate(t *testing.T) {
	e := &Deposit{}

	tests := []struct {
		name    string
		params  map[string]any
		missing string
	}{
		{name: "complete", params: map[string]any{"account": "a", "amount": 1}},
		{name: "missing amount", params: map[string]any{"account": "a"}, missing: "amount"},
		{name: "missing account", params: map[string]any{"amount": 1}, missing: "account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Validate(tt.params)
			if tt.missing == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var ve *runtime.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field != tt.missing {
				t.Errorf("field = %q, want %q", ve.Field, tt.missing)
			}
		})
	}
}

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	server := &queryServer{data: map[string]any{}}
	e := &Deposit{client: server.start(t)}

	_, err := e.Execute(context.Background(), nil, map[string]any{"account": "a", "amount": 0})
	if err == nil {
		t.Error("amount 0 passed validation")
	}
	if server.lastQuery != "" {
		t.Error("request was sent despite invalid input")
	}
}

func TestAccept_Execute(t *testing.T) {
	server := &queryServer{data: map[string]any{
		"acceptTransfer": map[string]any{
			"transferId": "tr_9",
			"status":     "ACCEPTED",
			"account":    map[string]any{"address": "acc_2"},
		},
	}}
	e := &Accept{client: server.start(t)}

	outputs, err := e.Execute(context.Background(), nil, map[string]any{"transfer_id": "tr_9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if server.lastVars["id"] != "tr_9" {
		t.Errorf("id var = %v", server.lastVars["id"])
	}
	if outputs["status"] != "ACCEPTED" {
		t.Errorf("status = %q", outputs["status"])
	}
}

func TestExecute_ServiceError(t *testing.T) {
	server := &queryServer{errors: []map[string]any{{"message": "insufficient funds"}}}
	e := &Withdraw{client: server.start(t)}

	_, err := e.Execute(context.Background(), nil, map[string]any{"account": "a", "amount": 5})
	var se *runtime.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
	if se.Operation != "withdraw" {
		t.Errorf("operation = %q", se.Operation)
	}
	if len(se.Messages) != 1 || se.Messages[0] != "insufficient funds" {
		t.Errorf("messages = %v", se.Messages)
	}
}

func TestCreateSwap_DirectRequiresCounterparty(t *testing.T) {
	open := &CreateSwap{}
	direct := &CreateSwap{direct: true}

	params := map[string]any{
		"offer_asset":  "USD",
		"offer_amount": 10,
		"want_asset":   "EUR",
		"want_amount":  9,
	}

	if err := open.Validate(params); err != nil {
		t.Errorf("open swap should not require counterparty: %v", err)
	}

	err := direct.Validate(params)
	var ve *runtime.ValidationError
	if !errors.As(err, &ve) || ve.Field != "counterparty" {
		t.Errorf("direct swap validation = %v, want missing counterparty", err)
	}
}

func TestMint_Execute(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/treasury/mint", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"tx_id": "tx_7", "total_supply": 1500})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	e := &Mint{client: service.NewClient(srv.URL, 5*time.Second)}

	outputs, err := e.Execute(context.Background(), &runtime.Credential{Token: "tok"}, map[string]any{"amount": 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v1/treasury/mint" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["amount"] != float64(500) {
		t.Errorf("amount = %v", gotBody["amount"])
	}
	if outputs["tx_id"] != "tx_7" || outputs["total_supply"] != "1500" {
		t.Errorf("outputs = %v", outputs)
	}
}

func TestTotalSupply_Execute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/treasury/supply", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"total_supply": 1500, "currency": "USD"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	e := &TotalSupply{client: service.NewClient(srv.URL, 5*time.Second)}

	outputs, err := e.Execute(context.Background(), nil, map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["total_supply"] != "1500" || outputs["currency"] != "USD" {
		t.Errorf("outputs = %v", outputs)
	}
}

func TestObligations_Execute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/obligations", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("role") != "obligor" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"obligations": []map[string]any{
				{"id": "ob_1"},
				{"id": "ob_2"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	e := &Obligations{client: service.NewClient(srv.URL, 5*time.Second)}

	outputs, err := e.Execute(context.Background(), nil, map[string]any{"role": "obligor"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["count"] != "2" {
		t.Errorf("count = %q", outputs["count"])
	}

	var decoded []map[string]any
	if err := json.Unmarshal([]byte(outputs["obligations"]), &decoded); err != nil {
		t.Fatalf("obligations output is not JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0]["id"] != "ob_1" {
		t.Errorf("obligations = %v", decoded)
	}
}

func TestListGroups_Execute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"groups": []map[string]any{
			{"id": "g1", "name": "operators"},
			{"id": "g2", "name": "auditors"},
		}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	e := &ListGroups{gateway: auth.NewGateway(srv.URL, 5*time.Second, testLogger())}

	outputs, err := e.Execute(context.Background(), &runtime.Credential{Token: "tok"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["count"] != "2" {
		t.Errorf("count = %q", outputs["count"])
	}

	var groups []auth.Group
	if err := json.Unmarshal([]byte(outputs["groups"]), &groups); err != nil {
		t.Fatalf("groups output is not JSON: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %v, want 2 entries", groups)
	}
	if groups[1].Name != "auditors" {
		t.Errorf("groups = %v", groups)
	}
}

func TestListGroups_RequiresCredential(t *testing.T) {
	e := &ListGroups{}

	if _, err := e.Execute(context.Background(), nil, nil); err == nil {
		t.Error("expected an error without a credential")
	}
}

func TestNewRegistry_CoversEveryOperationType(t *testing.T) {
	registry := NewRegistry(service.NewClient("http://localhost:0", time.Second), auth.NewGateway("http://localhost:0", time.Second, testLogger()))

	want := []string{
		"accept", "accept_obligation", "balance", "burn",
		"cancel_obligation", "cancel_swap", "complete_swap",
		"create_obligation", "create_swap", "create_swap_direct",
		"deposit", "instant", "list_groups", "mint",
		"obligations", "total_supply", "transfer_obligation", "withdraw",
	}
	if got := registry.Types(); !reflect.DeepEqual(got, want) {
		t.Errorf("Types() = %v, want %v", got, want)
	}
}
