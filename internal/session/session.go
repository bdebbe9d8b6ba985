// Package session holds the authenticated identity and its credential token,
// persisted across process restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/oauth2"

	"taskflow/internal/apperr"
	"taskflow/internal/service"
)

// Storage keys. Both must be present to restore a session.
const (
	TokenKey = "token"
	UserKey  = "user"
)

const loginFallback = "Invalid credentials. Please try again."

// ErrNoSession is returned by Token when nobody is logged in.
var ErrNoSession = errors.New("not logged in")

// Session is an authenticated identity.
type Session struct {
	User  service.User
	Token string
}

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (service.Credentials, error)
}

// Store owns the current session. It is safe for concurrent use.
type Store struct {
	auth    Authenticator
	storage Storage
	log     *slog.Logger

	mu      sync.RWMutex
	current *Session
	subs    map[int]func(Session, bool)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates an empty store. Call Restore once at startup.
func New(auth Authenticator, storage Storage, opts ...Option) *Store {
	s := &Store{
		auth:    auth,
		storage: storage,
		log:     slog.Default(),
		subs:    make(map[int]func(Session, bool)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore hydrates the session from storage. A missing or malformed value
// leaves the session empty; only storage failures are returned.
func (s *Store) Restore() error {
	token, hasToken, err := s.storage.Get(TokenKey)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	raw, hasUser, err := s.storage.Get(UserKey)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !hasToken || !hasUser || token == "" {
		s.log.Debug("no persisted session", "token", hasToken, "user", hasUser)
		return nil
	}

	var user service.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.log.Debug("discarding malformed persisted user", "error", err)
		return nil
	}
	if user.ID == "" || (user.Role != service.RoleAdmin && user.Role != service.RoleMember) {
		s.log.Debug("discarding persisted user without identity", "user", raw)
		return nil
	}

	s.set(&Session{User: user, Token: token})
	s.log.Debug("session restored", "email", user.Email, "role", user.Role)
	return nil
}

// Login authenticates, persists the session and returns the user so the
// caller can decide where to go next.
func (s *Store) Login(ctx context.Context, email, password string) (service.User, error) {
	creds, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return service.User{}, apperr.Auth(err, loginFallback)
	}

	data, err := json.Marshal(creds.User)
	if err != nil {
		return service.User{}, fmt.Errorf("encode user: %w", err)
	}
	// User before token; a failed write leaves neither.
	if err := s.storage.Set(UserKey, string(data)); err != nil {
		return service.User{}, fmt.Errorf("persist session: %w", err)
	}
	if err := s.storage.Set(TokenKey, creds.Token); err != nil {
		return service.User{}, errors.Join(fmt.Errorf("persist session: %w", err), s.storage.Remove(UserKey))
	}

	s.set(&Session{User: creds.User, Token: creds.Token})
	s.log.Debug("logged in", "email", creds.User.Email, "role", creds.User.Role)
	return creds.User, nil
}

// Logout clears the session in memory and in storage. It is idempotent.
// Storage failures are reported after the in-memory session is cleared.
func (s *Store) Logout() error {
	s.set(nil)
	return errors.Join(s.storage.Remove(TokenKey), s.storage.Remove(UserKey))
}

// Current returns the session and whether one exists.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Token implements oauth2.TokenSource with the current session's token.
func (s *Store) Token() (*oauth2.Token, error) {
	sess, ok := s.Current()
	if !ok {
		return nil, ErrNoSession
	}
	return &oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"}, nil
}

// Subscribe registers fn to be called after every session change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Session, bool)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) set(next *Session) {
	s.mu.Lock()
	s.current = next
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Session, bool), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	var sess Session
	if next != nil {
		sess = *next
	}
	for _, fn := range fns {
		fn(sess, next != nil)
	}
}

var _ oauth2.TokenSource = (*Store)(nil)
