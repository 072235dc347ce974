package auth

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/isdelr/userchat-be/internal/models"
	"github.com/rs/zerolog/log"
)

// SessionName is the cookie that carries the session ID.
const SessionName = "connect.sid"

const userKey = "user"

var (
	// ErrUnauthenticated is returned when the request has no live session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrNoSession is returned when logging out without a session.
	ErrNoSession = errors.New("no session found")
)

func init() {
	// Session values are gob-encoded by securecookie.
	gob.Register(models.UserSnapshot{})
}

// SessionStore is a sessions.Store whose sessions can also be destroyed by ID.
type SessionStore interface {
	sessions.Store
	Destroy(ctx context.Context, id string) error
}

// Manager ties the logged-in user snapshot to a server-side session.
type Manager struct {
	store SessionStore
}

// NewManager creates a Manager on top of store.
func NewManager(store SessionStore) *Manager {
	return &Manager{store: store}
}

// Establish starts a new session holding snap. A session already attached
// to the request is destroyed first so the client always gets a fresh ID.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, snap models.UserSnapshot) error {
	if old, err := m.store.Get(r, SessionName); err == nil && !old.IsNew {
		if err := m.store.Destroy(r.Context(), old.ID); err != nil {
			return err
		}
	}

	sess, err := m.store.New(r, SessionName)
	if err != nil {
		return err
	}
	sess.ID = ""
	sess.IsNew = true
	sess.Values = map[interface{}]interface{}{userKey: snap}

	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Current returns the snapshot stored in the request's session.
func (m *Manager) Current(r *http.Request) (models.UserSnapshot, error) {
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load session")
		return models.UserSnapshot{}, ErrUnauthenticated
	}
	if sess.IsNew {
		return models.UserSnapshot{}, ErrUnauthenticated
	}
	snap, ok := sess.Values[userKey].(models.UserSnapshot)
	if !ok {
		return models.UserSnapshot{}, ErrUnauthenticated
	}
	return snap, nil
}

// Destroy removes the request's session and expires its cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess.IsNew {
		return ErrNoSession
	}

	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
