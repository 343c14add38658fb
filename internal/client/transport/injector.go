// Package transport decorates outbound HTTP requests with the caller's
// credential and household scope.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/client"
)

// CredentialSource yields the bearer token for the current identity.
// It returns client.ErrNoSession when nobody is signed in.
type CredentialSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Injector is an http.RoundTripper that adds Authorization and
// X-Household-ID to every request it forwards.
type Injector struct {
	base  http.RoundTripper
	creds CredentialSource

	mu          sync.RWMutex
	householdID uuid.UUID
	scoped      bool
}

var _ http.RoundTripper = (*Injector)(nil)

// NewInjector wraps base; a nil base means http.DefaultTransport. creds may
// be nil, in which case no credential is attached.
func NewInjector(base http.RoundTripper, creds CredentialSource) *Injector {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Injector{base: base, creds: creds}
}

// SetHousehold scopes subsequent requests to id.
func (i *Injector) SetHousehold(id uuid.UUID) {
	i.mu.Lock()
	i.householdID, i.scoped = id, true
	i.mu.Unlock()
}

// ClearHousehold returns to the unscoped state; the header is then omitted.
func (i *Injector) ClearHousehold() {
	i.mu.Lock()
	i.householdID, i.scoped = uuid.Nil, false
	i.mu.Unlock()
}

// Household returns the id attached to outbound requests, if any.
func (i *Injector) Household() (uuid.UUID, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.householdID, i.scoped
}

// RoundTrip forwards a clone of req. A failure to obtain the credential is
// logged and the request goes out without one.
func (i *Injector) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	if i.creds != nil {
		token, err := i.creds.AccessToken(req.Context())
		switch {
		case err == nil && token != "":
			out.Header.Set("Authorization", "Bearer "+token)
		case err != nil && !errors.Is(err, client.ErrNoSession):
			slog.Warn("sending request without credential", "error", err, "path", req.URL.Path)
		}
	}

	if id, ok := i.Household(); ok {
		out.Header.Set(api.HeaderHouseholdID, id.String())
	} else {
		out.Header.Del(api.HeaderHouseholdID)
	}

	return i.base.RoundTrip(out)
}
