// Package session persists gorilla sessions in the application database.
//
// The cookie only carries the session ID, signed with the configured key
// pairs. The session values live in the sessions table next to a fixed
// expiry that is set once, when the row is created.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

// DefaultMaxAge is the lifetime of a session in seconds (24 hours).
const DefaultMaxAge = 24 * 60 * 60

// SQLStore implements sessions.Store on top of the sessions table.
type SQLStore struct {
	db      *sqlx.DB
	Codecs  []securecookie.Codec
	Options *sessions.Options // default configuration for new sessions

	now func() time.Time
}

var _ sessions.Store = (*SQLStore)(nil)

// NewSQLStore returns a store using db for persistence and keyPairs for
// signing (and optionally encrypting) the session cookie, as in
// securecookie.CodecsFromPairs.
func NewSQLStore(db *sqlx.DB, keyPairs ...[]byte) *SQLStore {
	s := &SQLStore{
		db:     db,
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   DefaultMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		now: time.Now,
	}
	s.MaxAge(s.Options.MaxAge)
	// Values live in the sessions table, so the cookie size cap does not apply.
	s.MaxLength(0)
	return s
}

// MaxAge sets the session lifetime for new sessions and the codecs.
func (s *SQLStore) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// MaxLength restricts the encoded size of session values and of the id
// cookie. Zero means no limit.
func (s *SQLStore) MaxLength(l int) {
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxLength(l)
		}
	}
}

// Get returns a session for the given name, cached per request.
func (s *SQLStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the stored session referenced by the request cookie, or a new
// one when the cookie is missing, does not verify, or points at a row that is
// gone or past its expiry.
func (s *SQLStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		log.Debug().Err(err).Msg("Ignoring session cookie that failed verification")
		return session, nil
	}

	found, err := s.load(r.Context(), session, id)
	if err != nil {
		return session, err
	}
	if found {
		session.ID = id
		session.IsNew = false
	}
	return session, nil
}

// Save persists the session and writes the cookie. A negative MaxAge
// destroys the session instead.
func (s *SQLStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if err := s.Destroy(r.Context(), session.ID); err != nil {
			return err
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	expiresAt, err := s.update(r.Context(), session.ID, data)
	if errors.Is(err, sql.ErrNoRows) {
		session.ID = ksuid.New().String()
		expiresAt, err = s.insert(r.Context(), session.ID, data, session.Options.MaxAge)
	}
	if err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}

	// The cookie never outlives the row.
	opts := *session.Options
	opts.MaxAge = int(expiresAt.Sub(s.now()).Seconds())
	if opts.MaxAge <= 0 {
		opts.MaxAge = -1
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, &opts))
	return nil
}

// Destroy deletes the session row. Unknown IDs are not an error.
func (s *SQLStore) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE id = ?`), id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// PurgeExpired deletes every session past its expiry and returns how many went.
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) load(ctx context.Context, session *sessions.Session, id string) (bool, error) {
	var data string
	err := s.db.GetContext(ctx, &data,
		s.db.Rebind(`SELECT data FROM sessions WHERE id = ? AND expires_at > ?`), id, s.now().Unix())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	if err := securecookie.DecodeMulti(session.Name(), data, &session.Values, s.Codecs...); err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("Discarding undecodable session data")
		return false, nil
	}
	return true, nil
}

func (s *SQLStore) insert(ctx context.Context, id, data string, maxAge int) (time.Time, error) {
	now := s.now()
	expiresAt := now.Add(time.Duration(maxAge) * time.Second)

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO sessions (id, data, created_at, expires_at) VALUES (?, ?, ?, ?)`),
		id, data, now.Unix(), expiresAt.Unix())
	if err != nil {
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return expiresAt, nil
}

// update rewrites the data of a live session and keeps its original expiry.
// It reports sql.ErrNoRows when there is nothing to update.
func (s *SQLStore) update(ctx context.Context, id, data string) (time.Time, error) {
	if id == "" {
		return time.Time{}, sql.ErrNoRows
	}

	var expiresAt int64
	err := s.db.GetContext(ctx, &expiresAt,
		s.db.Rebind(`UPDATE sessions SET data = ? WHERE id = ? AND expires_at > ? RETURNING expires_at`),
		data, id, s.now().Unix())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, sql.ErrNoRows
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return time.Unix(expiresAt, 0), nil
}
