package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payflow/runtime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// identityServer is a minimal identity service double.
type identityServer struct {
	groups         []Group
	delegateStatus int
	loginStatus    int
	loginBody      map[string]any

	lastDelegateBody map[string]any
}

func (s *identityServer) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if s.loginStatus != 0 {
			w.WriteHeader(s.loginStatus)
			return
		}
		body := s.loginBody
		if body == nil {
			body = map[string]any{"access_token": "direct-token"}
		}
		writeJSON(w, body)
	})

	mux.HandleFunc("/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"groups": s.groups})
	})

	mux.HandleFunc("/v1/auth/delegate", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&s.lastDelegateBody)
		if s.delegateStatus != 0 {
			w.WriteHeader(s.delegateStatus)
			return
		}
		writeJSON(w, map[string]any{"access_token": "delegated-token"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGateway_Login(t *testing.T) {
	srv := (&identityServer{}).start(t)
	g := NewGateway(srv.URL, 5*time.Second, testLogger())

	cred, err := g.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Token != "direct-token" {
		t.Errorf("token = %q", cred.Token)
	}
	if cred.Subject != "alice" {
		t.Errorf("subject = %q, want alice (fallback for opaque token)", cred.Subject)
	}
	if cred.Delegated {
		t.Error("direct credential marked delegated")
	}
}

func TestGateway_LoginParsesMislabeledJSON(t *testing.T) {
	// A service emitting JSON without declaring it still gets parsed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, `{"access_token": "direct-token"}`)
	}))
	t.Cleanup(srv.Close)
	g := NewGateway(srv.URL, 5*time.Second, testLogger())

	cred, err := g.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Token != "direct-token" {
		t.Errorf("token = %q, want direct-token", cred.Token)
	}
}

func TestGateway_LoginFailures(t *testing.T) {
	tests := []struct {
		name   string
		server *identityServer
	}{
		{name: "non-2xx", server: &identityServer{loginStatus: http.StatusUnauthorized}},
		{name: "missing token field", server: &identityServer{loginBody: map[string]any{"token_type": "bearer"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tt.server.start(t)
			g := NewGateway(srv.URL, 5*time.Second, testLogger())

			_, err := g.Login(context.Background(), "alice", "secret")
			var authErr *runtime.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("error = %v, want AuthError", err)
			}
			if authErr.Stage != "login" {
				t.Errorf("stage = %q, want login", authErr.Stage)
			}
		})
	}
}

func TestGateway_Delegate(t *testing.T) {
	server := &identityServer{groups: []Group{{ID: "g1", Name: "operators"}, {ID: "g2", Name: "auditors"}}}
	srv := server.start(t)
	g := NewGateway(srv.URL, 5*time.Second, testLogger())

	direct := &runtime.Credential{Token: "direct-token", Subject: "alice"}
	cred, err := g.Delegate(context.Background(), direct, "operators")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cred.Delegated {
		t.Error("credential not marked delegated")
	}
	if cred.Group != "operators" {
		t.Errorf("group = %q", cred.Group)
	}
	if cred.Token != "delegated-token" {
		t.Errorf("token = %q", cred.Token)
	}
	if until := time.Until(cred.ExpiresAt); until <= 0 || until > delegationTTL {
		t.Errorf("expiry %v outside (0, %v]", until, delegationTTL)
	}

	if server.lastDelegateBody["group_id"] != "g1" {
		t.Errorf("delegate asked for group %v, want g1", server.lastDelegateBody["group_id"])
	}
	scopes, _ := server.lastDelegateBody["scopes"].([]any)
	if len(scopes) != len(delegationScopes) {
		t.Errorf("requested scopes = %v, want the fixed set", scopes)
	}
}

func TestGateway_DelegateGroupNotFound(t *testing.T) {
	srv := (&identityServer{groups: []Group{{ID: "g1", Name: "operators"}}}).start(t)
	g := NewGateway(srv.URL, 5*time.Second, testLogger())

	direct := &runtime.Credential{Token: "direct-token", Subject: "alice"}
	_, err := g.Delegate(context.Background(), direct, "Operators") // case matters: exact match only
	if !errors.Is(err, runtime.ErrGroupNotFound) {
		t.Errorf("error = %v, want ErrGroupNotFound", err)
	}
}

func TestGateway_AuthenticateUsesDelegation(t *testing.T) {
	srv := (&identityServer{groups: []Group{{ID: "g1", Name: "operators"}}}).start(t)
	g := NewGateway(srv.URL, 5*time.Second, testLogger())

	cred, err := g.Authenticate(context.Background(), "alice", "secret", "operators")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cred.Delegated || cred.Token != "delegated-token" {
		t.Errorf("credential = %+v, want the delegation credential", cred)
	}
}

func TestGateway_AuthenticateFallsBackOnDelegationFailure(t *testing.T) {
	tests := []struct {
		name   string
		server *identityServer
	}{
		{name: "delegation rejected", server: &identityServer{groups: []Group{{ID: "g1", Name: "operators"}}, delegateStatus: http.StatusForbidden}},
		{name: "group missing", server: &identityServer{groups: []Group{{ID: "g2", Name: "auditors"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tt.server.start(t)
			g := NewGateway(srv.URL, 5*time.Second, testLogger())

			cred, err := g.Authenticate(context.Background(), "alice", "secret", "operators")
			if err != nil {
				t.Fatalf("fallback must not fail the operation: %v", err)
			}
			if cred.Delegated || cred.Token != "direct-token" {
				t.Errorf("credential = %+v, want the direct credential", cred)
			}
		})
	}
}

func TestGateway_AuthenticateWithoutGroup(t *testing.T) {
	srv := (&identityServer{}).start(t)
	g := NewGateway(srv.URL, 5*time.Second, testLogger())

	cred, err := g.Authenticate(context.Background(), "alice", "secret", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Delegated {
		t.Error("no group declared but credential is delegated")
	}
}
