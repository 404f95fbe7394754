package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"payflow/runtime"
)

// TokenCache persists a direct credential to a local file so auxiliary runs
// can skip the login round-trip. The engine works without it.
type TokenCache struct {
	path string
}

func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Load returns the cached credential, or nil when the cache is absent,
// unreadable, or expired.
func (t *TokenCache) Load() (*runtime.Credential, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token cache: %w", err)
	}

	var cred runtime.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parse token cache: %w", err)
	}
	if cred.Token == "" || cred.Expired(time.Now()) {
		return nil, nil
	}
	return &cred, nil
}

// Store writes the credential to the cache file, readable by the owner only.
func (t *TokenCache) Store(cred *runtime.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode token cache: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

// CachedAuthenticator wraps a Gateway with a TokenCache: a valid cached
// direct credential for the same user replaces the login call. Delegation
// is never cached; it is requested fresh per operation.
type CachedAuthenticator struct {
	gw    *Gateway
	cache *TokenCache
	l     *slog.Logger
}

func NewCachedAuthenticator(gw *Gateway, cache *TokenCache, l *slog.Logger) *CachedAuthenticator {
	return &CachedAuthenticator{gw: gw, cache: cache, l: l}
}

func (a *CachedAuthenticator) Authenticate(ctx context.Context, id, password, group string) (*runtime.Credential, error) {
	cred, err := a.cache.Load()
	if err != nil {
		a.l.Warn("token cache unreadable, logging in", "error", err.Error())
		cred = nil
	}
	if cred != nil && (cred.Delegated || cred.Subject != id) {
		cred = nil
	}

	if cred == nil {
		cred, err = a.gw.Login(ctx, id, password)
		if err != nil {
			return nil, err
		}
		if err := a.cache.Store(cred); err != nil {
			a.l.Warn("token cache not written", "error", err.Error())
		}
	}

	if group == "" {
		return cred, nil
	}

	delegated, err := a.gw.Delegate(ctx, cred, group)
	if err != nil {
		a.l.Warn("delegation failed, falling back to direct credential",
			"user", id,
			"group", group,
			"error", err.Error())
		return cred, nil
	}
	return delegated, nil
}
