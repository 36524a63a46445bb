// Package admin holds one-off maintenance operations run from climactl.
package admin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/climanegocios/platform/internal/domain/entity"
	"github.com/climanegocios/platform/internal/repository"
	"github.com/climanegocios/platform/pkg/platform/support/util/exception"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// Default administrator identity.
const (
	DefaultAdminEmail    = "admin@climanegocios.com"
	DefaultAdminUsername = "admin"
	DefaultAdminFullName = "Administrador"
)

// APIKeyPrefix starts every generated API key.
const APIKeyPrefix = "cn_"

// CreateAdminOptions configures CreateAdmin.
type CreateAdminOptions struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=3,max=100"`
	FullName string `validate:"max=255"`
	// Password is generated when empty.
	Password string `validate:"omitempty,min=8,max=72"`
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// CreateAdminResult reports what CreateAdmin did.
type CreateAdminResult struct {
	Created bool
	User    *entity.User
	// Password is set only when it was generated.
	GeneratedPassword string
	APIKey            string
}

var validate = validator.New()

// DefaultCreateAdminOptions returns the default identity with a generated password.
func DefaultCreateAdminOptions() CreateAdminOptions {
	return CreateAdminOptions{
		Email:    DefaultAdminEmail,
		Username: DefaultAdminUsername,
		FullName: DefaultAdminFullName,
	}
}

// CreateAdmin creates an administrator unless one already exists, in which
// case the existing one is returned with Created false.
func CreateAdmin(ctx context.Context, users repository.UserRepository, opts CreateAdminOptions) (*CreateAdminResult, error) {
	opts.Email = strings.ToLower(strings.TrimSpace(opts.Email))
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid admin options: %w", err)
	}

	existing, err := users.FindFirstByRole(ctx, entity.RoleAdmin)
	switch {
	case err == nil:
		logger.Infof("Admin already exists: %s.", existing.Email)
		return &CreateAdminResult{User: existing}, nil
	case !errors.Is(err, exception.ErrNotFound):
		return nil, err
	}

	res := &CreateAdminResult{Created: true}
	password := opts.Password
	if password == "" {
		if password, err = generatePassword(); err != nil {
			return nil, err
		}
		res.GeneratedPassword = password
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	res.APIKey = NewAPIKey()
	u := &entity.User{
		Email:                opts.Email,
		Username:             opts.Username,
		FullName:             opts.FullName,
		HashedPassword:       string(hash),
		IsActive:             true,
		IsVerified:           true,
		Role:                 entity.RoleAdmin,
		Preferences:          entity.JSONMap{},
		NotificationSettings: entity.JSONMap{},
		APIKey:               &res.APIKey,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	res.User = u
	logger.Infof("Admin %s created.", u.Email)
	return res, nil
}

// NewAPIKey returns a fresh API key.
func NewAPIKey() string {
	return APIKeyPrefix + uuid.NewString()
}

func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
