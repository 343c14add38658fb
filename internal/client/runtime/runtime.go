// Package runtime wires the client core together and owns its lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	wire "freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/client"
	"freshreceipt_backend/internal/client/api"
	"freshreceipt_backend/internal/client/household"
	"freshreceipt_backend/internal/client/securestore"
	"freshreceipt_backend/internal/client/session"
	"freshreceipt_backend/internal/client/transport"
	platformhttp "freshreceipt_backend/internal/platform/http"
)

const defaultHTTPTimeout = 15 * time.Second

type Options struct {
	BaseURL     string
	Storage     securestore.Store
	HTTPTimeout time.Duration
	// Base is the underlying transport; nil uses platformhttp.NewTransport.
	Base http.RoundTripper
}

// Runtime is the explicit client context: one session, one household
// selection and the API client that carries both.
type Runtime struct {
	Session    *session.Store
	Households *household.Selector
	Injector   *transport.Injector
	API        *api.Client

	mu          sync.Mutex
	lastState   session.State
	lastUser    uuid.UUID
	unsubscribe func()
}

func New(opts Options) (*Runtime, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("runtime: base URL is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("runtime: storage is required")
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = defaultHTTPTimeout
	}
	base := opts.Base
	if base == nil {
		base = platformhttp.NewTransport()
	}

	// Token calls bypass the injector so a refresh never asks the session
	// for a token.
	authAPI := api.New(opts.BaseURL, platformhttp.NewHTTPClient(opts.HTTPTimeout, base))
	sess := session.NewStore(authAPI, opts.Storage)

	inj := transport.NewInjector(base, sess)
	apiClient := api.New(opts.BaseURL, platformhttp.NewHTTPClient(opts.HTTPTimeout, inj))

	rt := &Runtime{
		Session:    sess,
		Households: household.NewSelector(opts.Storage, apiClient, inj),
		Injector:   inj,
		API:        apiClient,
		lastState:  session.StateLoading,
	}
	rt.unsubscribe = sess.Subscribe(rt.onSession)
	return rt, nil
}

// onSession drops the household selection whenever the identity goes away
// or changes, including a rejected refresh or an external sign-out.
func (r *Runtime) onSession(snap session.Snapshot) {
	var user uuid.UUID
	if snap.User != nil {
		user = snap.User.ID
	}

	r.mu.Lock()
	prev, prevUser := r.lastState, r.lastUser
	r.lastState, r.lastUser = snap.State, user
	r.mu.Unlock()

	if prev != session.StateAuthenticated {
		return
	}
	if snap.State == session.StateAnonymous || (snap.State == session.StateAuthenticated && user != prevUser) {
		if err := r.Households.Clear(context.Background()); err != nil {
			slog.Warn("runtime: clearing household selection failed", "error", err)
		}
	}
}

// Init restores the persisted session and, if signed in, the household
// selection.
func (r *Runtime) Init(ctx context.Context) {
	r.Session.Init(ctx)
	if r.Session.Snapshot().State == session.StateAuthenticated {
		r.Households.Init(ctx)
	}
}

func (r *Runtime) SignIn(ctx context.Context, email, password string) (*session.User, error) {
	u, err := r.Session.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	r.Households.Init(ctx)
	return u, nil
}

// SignUp registers, signs in and bootstraps the first household, which then
// becomes the selection. An identity that already owns a household keeps
// it.
func (r *Runtime) SignUp(ctx context.Context, email, password, householdName string) (*wire.HouseholdResponse, error) {
	if _, err := r.Session.SignUp(ctx, email, password); err != nil {
		return nil, err
	}
	if _, err := r.Session.SignIn(ctx, email, password); err != nil {
		return nil, err
	}

	h, err := r.API.BootstrapHousehold(ctx, householdName)
	if err != nil {
		if client.IsStatus(err, http.StatusConflict) {
			r.Households.Init(ctx)
			if id, ok := r.Households.Current(); ok {
				return r.API.GetHousehold(ctx, id)
			}
		}
		return nil, fmt.Errorf("bootstrap household: %w", err)
	}
	if err := r.Households.Select(ctx, h.ID); err != nil {
		return h, err
	}
	return h, nil
}

// Teardown signs out and drops the selection. It always succeeds.
func (r *Runtime) Teardown(ctx context.Context) {
	r.Session.SignOut(ctx)
	if err := r.Households.Clear(ctx); err != nil {
		slog.Warn("runtime: clearing household selection failed", "error", err)
	}
}

// Close detaches the runtime from its session store.
func (r *Runtime) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}
