package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"bookshelf/internal/auth"
	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

// Registration is the input of the registration flow.
type Registration struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	CreatedBy string `json:"createdBy"`
}

// Validate checks every field and reports all failures at once.
func (r Registration) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(5, 10).Error("name must be between 5 and 10 characters"),
		),
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
			is.Email.Error("username must be a valid email"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("please enter a valid password"),
			validation.Length(6, 12).Error("please enter a valid password"),
		),
		validation.Field(&r.CreatedBy,
			validation.Required.Error("createdBy is required"),
		),
	)
	return toValidationError(err, func(param string) any {
		switch param {
		case "name":
			return r.Name
		case "username":
			return r.Username
		case "createdBy":
			return r.CreatedBy
		}
		// passwords are never echoed back
		return ""
	})
}

// Credentials is the input of the login flow.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Username,
			validation.Required.Error("username is required"),
			is.Email.Error("username must be a valid email"),
		),
		validation.Field(&c.Password, validation.Required.Error("password is required")),
	)
	return toValidationError(err, func(param string) any {
		if param == "username" {
			return c.Username
		}
		return ""
	})
}

// TokenIssuer signs identity tokens for users.
type TokenIssuer interface {
	Issue(ctx context.Context, userID string) (string, error)
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in Registration) (string, error)
	Authenticate(ctx context.Context, in Credentials) (string, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	hasher auth.Hasher
	tokens TokenIssuer
	now    func() time.Time
}

func NewUserService(users repository.UserRepository, hasher auth.Hasher, tokens TokenIssuer) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register validates the input, rejects taken usernames, stores the user with
// a hashed password and returns a token for the new account. The username
// lookup is only a fast path; the store's unique index decides races.
func (s *userService) Register(ctx context.Context, in Registration) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)

	if err := in.Validate(); err != nil {
		return "", err
	}

	_, err := s.users.GetByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return "", domain.ErrAlreadyRegistered
	case !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         in.Name,
		Username:     in.Username,
		PasswordHash: hash,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    s.now().UTC(),
	}
	id, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return "", domain.ErrAlreadyRegistered
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(ctx, id)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *userService) Authenticate(ctx context.Context, in Credentials) (string, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := in.Validate(); err != nil {
		return "", err
	}

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrMismatchedHash) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		CreatedBy: user.CreatedBy,
		CreatedAt: user.CreatedAt,
	}
}
