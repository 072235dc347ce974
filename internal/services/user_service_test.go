package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/isdelr/userchat-be/internal/database/dbtest"
	"github.com/isdelr/userchat-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(dbtest.New(t))
}

func newMockUserService(t *testing.T) (*UserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserService(sqlx.NewDb(db, "sqlmock")), mock
}

func seedUser(t *testing.T, s *UserService, email string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{
		Name:        "Ada",
		Email:       email,
		PhoneNumber: "+1-555-0100",
		Role:        "admin",
		Password:    "hash",
	})
	require.NoError(t, err)
	return u
}

func TestCreateUser_GeneratesID(t *testing.T) {
	s := newUserService(t)

	u := seedUser(t, s, "ada@example.com")

	_, err := uuid.Parse(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newUserService(t)
	seedUser(t, s, "ada@example.com")

	_, err := s.CreateUser(context.Background(), models.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	all, err := s.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateUser_ConcurrentDuplicates(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateUser(ctx, models.User{Email: "race@example.com", Password: "x"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicateEmail):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, dupes)
}

func TestGetUserByEmail(t *testing.T) {
	s := newUserService(t)
	created := seedUser(t, s, "ada@example.com")

	got, err := s.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = s.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByID(t *testing.T) {
	s := newUserService(t)
	created := seedUser(t, s, "ada@example.com")

	got, err := s.GetUserByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = s.GetUserByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.GetUserByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestGetUserByID_NonCanonicalForms(t *testing.T) {
	s := newUserService(t)
	created := seedUser(t, s, "ada@example.com")
	compact := strings.ReplaceAll(created.ID, "-", "")

	for _, id := range []string{
		"urn:uuid:" + created.ID,
		"{" + created.ID + "}",
		compact,
	} {
		_, err := s.GetUserByID(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidID, id)

		_, err = s.UpdateUser(context.Background(), id, models.UserPatch{Name: strPtr("X")})
		assert.ErrorIs(t, err, ErrInvalidID, id)

		_, err = s.DeleteUser(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}

	got, err := s.GetUserByID(context.Background(), strings.ToUpper(created.ID))
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestGetAllUsers(t *testing.T) {
	s := newUserService(t)

	empty, err := s.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a := seedUser(t, s, "a@example.com")
	b := seedUser(t, s, "b@example.com")

	all, err := s.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.User{a, b}, all)
}

func TestUpdateUser_OnlyTouchesGivenFields(t *testing.T) {
	s := newUserService(t)
	created := seedUser(t, s, "ada@example.com")

	updated, err := s.UpdateUser(context.Background(), created.ID, models.UserPatch{Name: strPtr("X")})
	require.NoError(t, err)

	want := created
	want.Name = "X"
	assert.Equal(t, want, updated)
}

func TestUpdateUser_PasswordStoredVerbatim(t *testing.T) {
	s := newUserService(t)
	created := seedUser(t, s, "ada@example.com")

	updated, err := s.UpdateUser(context.Background(), created.ID, models.UserPatch{Password: strPtr("plain")})
	require.NoError(t, err)
	assert.Equal(t, "plain", updated.Password)
}

func TestUpdateUser_EmptyPatchReturnsCurrent(t *testing.T) {
	s := newUserService(t)
	created := seedUser(t, s, "ada@example.com")

	got, err := s.UpdateUser(context.Background(), created.ID, models.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestUpdateUser_Errors(t *testing.T) {
	s := newUserService(t)
	seedUser(t, s, "taken@example.com")
	other := seedUser(t, s, "other@example.com")

	_, err := s.UpdateUser(context.Background(), uuid.New().String(), models.UserPatch{Name: strPtr("X")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.UpdateUser(context.Background(), "bogus", models.UserPatch{Name: strPtr("X")})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = s.UpdateUser(context.Background(), other.ID, models.UserPatch{Email: strPtr("taken@example.com")})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestDeleteUser(t *testing.T) {
	s := newUserService(t)
	created := seedUser(t, s, "ada@example.com")

	deleted, err := s.DeleteUser(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	_, err = s.GetUserByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.DeleteUser(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.DeleteUser(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestGetAllUsers_DBError(t *testing.T) {
	s, mock := newMockUserService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + userColumns + ` FROM users`)).
		WillReturnError(errors.New("connection reset"))

	_, err := s.GetAllUsers(context.Background())
	require.Error(t, err)
	assert.Regexp(t, `db error: .*connection reset`, err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DBError(t *testing.T) {
	s, mock := newMockUserService(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(errors.New("disk full"))

	_, err := s.CreateUser(context.Background(), models.User{Email: "a@example.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
	assert.Regexp(t, `db error: .*disk full`, err.Error())
}

func TestGetUserByEmail_DBError(t *testing.T) {
	s, mock := newMockUserService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)).
		WithArgs("a@example.com").
		WillReturnError(errors.New("timeout"))

	_, err := s.GetUserByEmail(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
