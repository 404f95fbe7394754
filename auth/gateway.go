// Package auth talks to the identity service: direct login, group lookup,
// and exchange of a personal credential for a group-scoped delegation
// credential.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"payflow/runtime"
)

// delegationScopes is the fixed capability set requested for every
// delegation credential. It is not configurable from the workflow file.
var delegationScopes = []string{
	"payments:transfer",
	"payments:obligation",
	"payments:swap",
	"payments:read",
}

// delegationTTL bounds the lifetime of a delegation credential.
const delegationTTL = time.Hour

// Group is one delegation group visible to an authenticated user.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Gateway is the identity-service client.
type Gateway struct {
	client *resty.Client
	l      *slog.Logger
}

func NewGateway(baseURL string, timeout time.Duration, l *slog.Logger) *Gateway {
	return &Gateway{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
		l: l,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

// Login authenticates a user directly and returns a bearer credential.
func (g *Gateway) Login(ctx context.Context, id, password string) (*runtime.Credential, error) {
	var body tokenResponse
	// ForceContentType: the identity service speaks JSON; parse the
	// body even when the Content-Type header says otherwise.
	resp, err := g.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetBody(map[string]string{"id": id, "password": password}).
		SetResult(&body).
		Post("/v1/auth/login")
	if err != nil {
		return nil, &runtime.AuthError{Stage: "login", User: id, Err: &runtime.TransportError{Endpoint: "/v1/auth/login", Err: err}}
	}
	if resp.IsError() {
		return nil, &runtime.AuthError{Stage: "login", User: id, Err: fmt.Errorf("identity service returned %s", resp.Status())}
	}
	if body.AccessToken == "" {
		return nil, &runtime.AuthError{Stage: "login", User: id, Err: fmt.Errorf("response carries no access_token")}
	}

	subject, expiresAt := runtime.InspectToken(body.AccessToken)
	if subject == "" {
		subject = id
	}
	return &runtime.Credential{
		Token:     body.AccessToken,
		Subject:   subject,
		ExpiresAt: expiresAt,
	}, nil
}

// Groups lists the delegation groups visible to the credential's subject.
func (g *Gateway) Groups(ctx context.Context, cred *runtime.Credential) ([]Group, error) {
	var body struct {
		Groups []Group `json:"groups"`
	}
	resp, err := g.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetAuthToken(cred.Token).
		SetResult(&body).
		Get("/v1/groups")
	if err != nil {
		return nil, &runtime.TransportError{Endpoint: "/v1/groups", Err: err}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("identity service returned %s listing groups", resp.Status())
	}
	return body.Groups, nil
}

// Delegate exchanges a direct credential for one acting on behalf of the
// named group. The group name must match exactly among the caller's visible
// groups; the requested scope set and expiry are fixed.
func (g *Gateway) Delegate(ctx context.Context, cred *runtime.Credential, groupName string) (*runtime.Credential, error) {
	groups, err := g.Groups(ctx, cred)
	if err != nil {
		return nil, &runtime.AuthError{Stage: "delegate", User: cred.Subject, Err: err}
	}

	var group *Group
	for i := range groups {
		if groups[i].Name == groupName {
			group = &groups[i]
			break
		}
	}
	if group == nil {
		return nil, &runtime.AuthError{
			Stage: "delegate",
			User:  cred.Subject,
			Err:   fmt.Errorf("%w: %q", runtime.ErrGroupNotFound, groupName),
		}
	}

	var body tokenResponse
	resp, err := g.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetAuthToken(cred.Token).
		SetBody(map[string]any{
			"group_id":   group.ID,
			"scopes":     delegationScopes,
			"expires_in": int(delegationTTL.Seconds()),
		}).
		SetResult(&body).
		Post("/v1/auth/delegate")
	if err != nil {
		return nil, &runtime.AuthError{Stage: "delegate", User: cred.Subject, Err: &runtime.TransportError{Endpoint: "/v1/auth/delegate", Err: err}}
	}
	if resp.IsError() {
		return nil, &runtime.AuthError{Stage: "delegate", User: cred.Subject, Err: fmt.Errorf("identity service returned %s", resp.Status())}
	}
	if body.AccessToken == "" {
		return nil, &runtime.AuthError{Stage: "delegate", User: cred.Subject, Err: fmt.Errorf("response carries no access_token")}
	}

	_, expiresAt := runtime.InspectToken(body.AccessToken)
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(delegationTTL)
	}
	return &runtime.Credential{
		Token:     body.AccessToken,
		Subject:   cred.Subject,
		Group:     group.Name,
		Scopes:    delegationScopes,
		ExpiresAt: expiresAt,
		Delegated: true,
	}, nil
}

// Authenticate logs the user in and, when a group is declared, upgrades the
// credential to a delegation credential. Delegation failure falls back to
// the direct credential instead of failing the operation.
func (g *Gateway) Authenticate(ctx context.Context, id, password, group string) (*runtime.Credential, error) {
	cred, err := g.Login(ctx, id, password)
	if err != nil {
		return nil, err
	}
	if group == "" {
		return cred, nil
	}

	delegated, err := g.Delegate(ctx, cred, group)
	if err != nil {
		g.l.Warn("delegation failed, falling back to direct credential",
			"user", id,
			"group", group,
			"error", err.Error())
		return cred, nil
	}
	return delegated, nil
}

// Health probes the identity service.
func (g *Gateway) Health(ctx context.Context) error {
	resp, err := g.client.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return &runtime.TransportError{Endpoint: "/healthz", Err: err}
	}
	if resp.IsError() {
		return fmt.Errorf("identity service returned %s", resp.Status())
	}
	return nil
}
