// Package session holds the signed-in identity of the client and keeps its
// tokens fresh.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	wire "freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/client"
	"freshreceipt_backend/internal/client/securestore"
)

// StorageKey is the secure-store key of the persisted session payload.
const StorageKey = "freshreceipt.auth.session"

// RefreshSkew is how long before expiry an access token is refreshed.
const RefreshSkew = 30 * time.Second

type State string

const (
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Snapshot is a consistent copy of the store. User and Session are nil
// unless State is StateAuthenticated.
type Snapshot struct {
	State   State
	User    *User
	Session *Session
}

type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventTokenRefreshed EventKind = "token_refreshed"
	EventSignedOut      EventKind = "signed_out"
)

// Event is a session change that happened outside this store.
type Event struct {
	Kind    EventKind
	Session *Session
}

// AuthAPI is the subset of the API client the store talks to. It must not
// route through a transport that asks this store for a token.
type AuthAPI interface {
	Signup(ctx context.Context, email, password string) (*wire.UserResponse, error)
	Login(ctx context.Context, email, password string) (*wire.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*wire.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type observer struct {
	id int
	fn func(Snapshot)
}

// Store is safe for concurrent use. Mutations are serialized; reads never
// wait on network or storage I/O.
type Store struct {
	api     AuthAPI
	storage securestore.Store
	now     func() time.Time

	// writeMu serializes mutations including their storage I/O.
	writeMu sync.Mutex

	mu      sync.RWMutex
	state   State
	session *Session

	obsMu     sync.Mutex
	observers []observer
	nextObs   int
}

func NewStore(api AuthAPI, storage securestore.Store) *Store {
	return &Store{api: api, storage: storage, now: time.Now, state: StateLoading}
}

// Init loads the persisted session. Unreadable payloads are logged and
// treated as absent.
func (s *Store) Init(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sess, err := s.load(ctx)
	if err != nil {
		slog.Warn("session: ignoring persisted session", "error", err)
	}
	s.set(sess)
	s.notify()
}

func (s *Store) load(ctx context.Context) (*Session, error) {
	raw, err := s.storage.Get(ctx, StorageKey)
	if errors.Is(err, securestore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &client.PersistenceError{Op: "read", Key: StorageKey, Err: err}
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, &client.PersistenceError{Op: "decode", Key: StorageKey, Err: err}
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		return nil, &client.PersistenceError{Op: "decode", Key: StorageKey, Err: errors.New("incomplete session payload")}
	}
	return &sess, nil
}

func (s *Store) persist(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return &client.PersistenceError{Op: "encode", Key: StorageKey, Err: err}
	}
	if err := s.storage.Set(ctx, StorageKey, raw); err != nil {
		return &client.PersistenceError{Op: "write", Key: StorageKey, Err: err}
	}
	return nil
}

func (s *Store) discard(ctx context.Context) {
	if err := s.storage.Delete(ctx, StorageKey); err != nil {
		slog.Warn("session: failed to remove persisted session",
			"error", &client.PersistenceError{Op: "delete", Key: StorageKey, Err: err})
	}
}

// SignIn exchanges credentials for a session and persists it. Rejected
// credentials give *client.AuthError; a storage failure gives
// *client.PersistenceError and leaves the store as it was.
func (s *Store) SignIn(ctx context.Context, email, password string) (*User, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tok, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.settle()
		if client.IsStatus(err, http.StatusBadRequest, http.StatusUnauthorized) {
			return nil, &client.AuthError{Op: "sign in", Err: err}
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	sess := s.fromToken(tok)
	if err := s.persist(ctx, sess); err != nil {
		s.settle()
		return nil, err
	}
	s.set(sess)
	s.notify()

	u := sess.User
	return &u, nil
}

// SignUp registers a new identity. It does not sign in.
func (s *Store) SignUp(ctx context.Context, email, password string) (*User, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer s.settle()

	res, err := s.api.Signup(ctx, email, password)
	if err != nil {
		if client.IsStatus(err, http.StatusBadRequest, http.StatusConflict) {
			return nil, &client.AuthError{Op: "sign up", Err: err}
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return &User{ID: res.ID, Email: res.Email}, nil
}

// SignOut revokes the refresh session and clears local state. Remote
// failures are logged; the store always ends anonymous.
func (s *Store) SignOut(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()

	if sess != nil {
		if err := s.api.Logout(ctx, sess.RefreshToken); err != nil {
			slog.Warn("session: remote sign-out failed", "error", err)
		}
	}
	s.discard(ctx)
	s.set(nil)
	s.notify()
}

// AccessToken returns a bearer token for the current identity, refreshing
// it first when it expires within RefreshSkew.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return "", client.ErrNoSession
	}
	if s.fresh(sess) {
		return sess.AccessToken, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Someone else may have refreshed or signed out while we waited.
	s.mu.RLock()
	sess = s.session
	s.mu.RUnlock()
	if sess == nil {
		return "", client.ErrNoSession
	}
	if s.fresh(sess) {
		return sess.AccessToken, nil
	}

	tok, err := s.api.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if client.IsStatus(err, http.StatusBadRequest, http.StatusUnauthorized) {
			s.discard(ctx)
			s.set(nil)
			s.notify()
			return "", &client.AuthError{Op: "refresh", Err: err}
		}
		return "", fmt.Errorf("refresh: %w", err)
	}

	next := s.fromToken(tok)
	if err := s.persist(ctx, next); err != nil {
		slog.Warn("session: refreshed session not persisted", "error", err)
	}
	s.set(next)
	s.notify()
	return next.AccessToken, nil
}

func (s *Store) fresh(sess *Session) bool {
	return s.now().Add(RefreshSkew).Before(sess.ExpiresAt)
}

// Apply folds an external session change into the store. Persistence
// failures are logged.
func (s *Store) Apply(ctx context.Context, ev Event) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	switch ev.Kind {
	case EventSignedIn, EventTokenRefreshed:
		if ev.Session == nil || ev.Session.AccessToken == "" {
			return fmt.Errorf("session event %q without session", ev.Kind)
		}
		sess := *ev.Session
		if err := s.persist(ctx, &sess); err != nil {
			slog.Warn("session: applied session not persisted", "event", ev.Kind, "error", err)
		}
		s.set(&sess)
	case EventSignedOut:
		s.discard(ctx)
		s.set(nil)
	default:
		return fmt.Errorf("unknown session event %q", ev.Kind)
	}
	s.notify()
	return nil
}

// Watch applies events from ch until ctx is done or ch is closed.
func (s *Store) Watch(ctx context.Context, ch <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := s.Apply(ctx, ev); err != nil {
				slog.Warn("session: dropping event", "error", err)
			}
		}
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{State: s.state}
	if s.session != nil {
		sess := *s.session
		u := sess.User
		snap.Session, snap.User = &sess, &u
	}
	return snap
}

// Subscribe registers fn to be called with a snapshot after every change.
// fn runs synchronously and must not call SignIn, SignOut, Apply or
// AccessToken.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) set(sess *Session) {
	s.mu.Lock()
	s.session = sess
	if sess == nil {
		s.state = StateAnonymous
	} else {
		s.state = StateAuthenticated
	}
	s.mu.Unlock()
}

// settle moves a store that was never initialised out of loading. A store
// that already left loading is unchanged.
func (s *Store) settle() {
	s.mu.Lock()
	changed := s.state == StateLoading
	if changed {
		s.session = nil
		s.state = StateAnonymous
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.obsMu.Lock()
	obs := make([]observer, len(s.observers))
	copy(obs, s.observers)
	s.obsMu.Unlock()

	for _, o := range obs {
		o.fn(snap)
	}
}

func (s *Store) fromToken(tok *wire.TokenResponse) *Session {
	return &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    s.now().Add(time.Duration(tok.ExpiresIn) * time.Second),
		User:         User{ID: tok.User.ID, Email: tok.User.Email},
	}
}
