package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/ShameelMohamed/FASHN8/internal/store"
	"github.com/ShameelMohamed/FASHN8/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users and their wardrobes.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	PutWardrobeItem(ctx context.Context, username string, category types.Category, color, imageURL string) error
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Registration is the signup form.
type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register validates the form and creates an account with empty wardrobes.
// A taken username yields store.ErrConflict.
func (s *UserService) Register(ctx context.Context, reg Registration) (types.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Username == "" || reg.Email == "" || reg.Password == "" || reg.ConfirmPassword == "" {
		return types.User{}, fmt.Errorf("%w: please fill all fields", ErrInvalidInput)
	}
	if strings.ContainsAny(reg.Username, "/ ") {
		return types.User{}, fmt.Errorf("%w: username must not contain spaces or slashes", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return types.User{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if reg.Password != reg.ConfirmPassword {
		return types.User{}, fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, types.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hashed),
		Shirts:       types.Wardrobe{},
		Pants:        types.Wardrobe{},
	})
}

// Authenticate returns the user when password matches. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}
