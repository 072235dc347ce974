package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdelr/userchat-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for new passwords.
const PasswordCost = 10

// SignupInput carries the fields accepted at registration.
type SignupInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Role        string
	Password    string // plaintext, hashed before storage
}

// AuthServiceProvider defines the interface for credential handling.
type AuthServiceProvider interface {
	Signup(ctx context.Context, in SignupInput) (models.User, error)
	Login(ctx context.Context, email, password string) (models.UserSnapshot, error)
}

// AuthService registers users and verifies their credentials.
type AuthService struct {
	users UserServiceProvider
	cost  int
}

// NewAuthService creates a new AuthService backed by users.
func NewAuthService(users UserServiceProvider) *AuthService {
	return &AuthService{users: users, cost: PasswordCost}
}

// Signup registers a new user. The returned record carries the password hash;
// callers decide what to expose.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	// Cheap pre-check; the unique index on email settles concurrent signups.
	_, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return models.User{}, ErrDuplicateEmail
	case !errors.Is(err, ErrUserNotFound):
		return models.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.CreateUser(ctx, models.User{
		Name:        in.Name,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Role:        in.Role,
		Password:    string(hashed),
	})
}

// Login verifies email and password and returns the snapshot to keep in the session.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.UserSnapshot, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return models.UserSnapshot{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.UserSnapshot{}, ErrInvalidCredentials
	}
	return user.Snapshot(), nil
}
