package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GlarosConsulting/atena-client/internal/atena"
	"github.com/GlarosConsulting/atena-client/models"
)

// Authenticator is the part of the Atena API the gate needs.
type Authenticator interface {
	CreateSession(ctx context.Context, creds models.Credentials) (*models.Session, error)
	GetUser(ctx context.Context, token, id string) (*models.User, error)
}

// Options tune a Gate.
type Options struct {
	// TTL bounds how long an idle session survives in the store.
	TTL time.Duration
	// RefreshInterval is how old the cached user may get before Refresh
	// re-reads it. Zero disables refreshing.
	RefreshInterval time.Duration
}

// Gate signs users in and out and answers capability questions. Checks made
// here only shape what the dashboard offers; the API enforces authorization.
type Gate struct {
	store Store
	auth  Authenticator
	opts  Options
	now   func() time.Time
	locks [64]sync.Mutex
}

func NewGate(store Store, auth Authenticator, opts Options) *Gate {
	return &Gate{store: store, auth: auth, opts: opts, now: time.Now}
}

// SignIn opens a session with the API and stores it under a new id.
// Failures are returned as they are; there is no retry.
func (g *Gate) SignIn(ctx context.Context, creds models.Credentials) (string, *models.Session, error) {
	s, err := g.auth.CreateSession(ctx, creds)
	if err != nil {
		return "", nil, fmt.Errorf("sign in: %w", err)
	}
	if s.User.ID == "" {
		return "", nil, errors.New("sign in: api returned a session without user")
	}
	s.RefreshedAt = g.now()

	id := uuid.Must(uuid.NewV7()).String()
	if err := g.store.Save(ctx, id, s, g.opts.TTL); err != nil {
		return "", nil, fmt.Errorf("sign in: %w", err)
	}
	slog.Info("User signed in", "user_id", s.User.ID, "session", id)
	return id, s, nil
}

// SignOut forgets the session. Unknown ids are not an error.
func (g *Gate) SignOut(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := g.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Current returns the stored session, or ErrNotFound.
func (g *Gate) Current(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return g.store.Load(ctx, id)
}

// IsSignedIn reports whether id names a live session with a user.
func (g *Gate) IsSignedIn(ctx context.Context, id string) bool {
	s, err := g.Current(ctx, id)
	return err == nil && s.User.ID != ""
}

// HasAccess reports whether the session's group access is one of scopes.
// It is false when there is no session.
func (g *Gate) HasAccess(ctx context.Context, id string, scopes ...models.Access) bool {
	s, err := g.Current(ctx, id)
	if err != nil {
		return false
	}
	return HasAccess(s, scopes...)
}

// HasAccess is the store-free form of Gate.HasAccess.
func HasAccess(s *models.Session, scopes ...models.Access) bool {
	if s == nil || s.User.ID == "" || s.User.Group == nil {
		return false
	}
	return slices.Contains(scopes, s.User.Group.Access)
}

// Refresh re-reads the user from the API when the stored copy is older than
// the refresh interval. An API that no longer accepts the token ends the
// session; other failures keep the stale copy.
func (g *Gate) Refresh(ctx context.Context, id string, s *models.Session) (*models.Session, error) {
	if g.opts.RefreshInterval <= 0 || g.now().Sub(s.RefreshedAt) < g.opts.RefreshInterval {
		return s, nil
	}

	user, err := g.auth.GetUser(ctx, s.AccessToken, s.User.ID)
	switch {
	case errors.Is(err, atena.ErrUnauthorized):
		_ = g.store.Delete(ctx, id)
		return nil, ErrNotFound
	case err != nil:
		slog.Warn("Failed to refresh user, keeping cached copy", "user_id", s.User.ID, "error", err)
		return s, nil
	}

	return g.Update(ctx, id, func(cur *models.Session) error {
		cur.User = *user
		cur.RefreshedAt = g.now()
		return nil
	})
}

// Update applies fn to the stored session and saves the result. Updates to
// the same session are serialized.
func (g *Gate) Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	mu := g.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	s, err := g.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := g.store.Save(ctx, id, s, g.opts.TTL); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

func (g *Gate) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &g.locks[h.Sum32()%uint32(len(g.locks))]
}
