package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/userchat-be/internal/models"
	"github.com/jmoiron/sqlx"
)

const userColumns = "id, name, email, phone_number, role, password"

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id string) (models.User, error)
}

// UserService owns the users table.
type UserService struct {
	db *sqlx.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sqlx.DB) *UserService {
	return &UserService{db: db}
}

// CreateUser stores user under a freshly generated ID. The password field is
// written as given; hashing is the caller's job.
func (s *UserService) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	user.ID = uuid.New().String()

	query := s.db.Rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PhoneNumber, user.Role, user.Password)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by email, including the password hash.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if err != nil {
		return models.User{}, notFoundOr(err)
	}
	return user, nil
}

// GetUserByID retrieves a single user by ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	id, err := canonicalID(id)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = s.db.GetContext(ctx, &user, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return models.User{}, notFoundOr(err)
	}
	return user, nil
}

// GetAllUsers returns every user in store order.
func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users`); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

// UpdateUser overwrites every field present in patch and returns the result.
// A password in the patch is stored verbatim, it is not re-hashed.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	id, err := canonicalID(id)
	if err != nil {
		return models.User{}, err
	}
	if patch.IsEmpty() {
		return s.GetUserByID(ctx, id)
	}

	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	set("name", patch.Name)
	set("email", patch.Email)
	set("phone_number", patch.PhoneNumber)
	set("role", patch.Role)
	set("password", patch.Password)
	args = append(args, id)

	query := s.db.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ? RETURNING ` + userColumns)

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, args...); err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, notFoundOr(err)
	}
	return user, nil
}

// DeleteUser removes a user and returns the record as it was.
// Sessions holding a snapshot of this user are left alone.
func (s *UserService) DeleteUser(ctx context.Context, id string) (models.User, error) {
	id, err := canonicalID(id)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = s.db.GetContext(ctx, &user, s.db.Rebind(`DELETE FROM users WHERE id = ? RETURNING `+userColumns), id)
	if err != nil {
		return models.User{}, notFoundOr(err)
	}
	return user, nil
}

// canonicalID accepts only the hyphenated 36-character form and returns it
// lowercased, which is how ids are stored.
func canonicalID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || len(id) != 36 {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return parsed.String(), nil
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
