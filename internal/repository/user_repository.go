// Package repository persists the platform entities through GORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/climanegocios/platform/internal/domain/entity"
	gormadapter "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm"
	"github.com/climanegocios/platform/pkg/platform/support/util/exception"
)

// Search limits shared by the repositories.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// similarityThreshold is the pg_trgm similarity above which a fuzzy match counts.
const similarityThreshold = 0.3

// likeEscaper makes user input match literally inside a LIKE pattern that
// declares ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// UserRepository reads and writes users.
type UserRepository interface {
	// Create inserts u. It returns exception.ErrAlreadyExists when the email,
	// username or API key is taken.
	Create(ctx context.Context, u *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindFirstByRole returns the oldest user holding role.
	FindFirstByRole(ctx context.Context, role entity.UserRole) (*entity.User, error)
	// SearchByEmail matches a fragment of the address, fuzzily on Postgres.
	SearchByEmail(ctx context.Context, fragment string, limit int) ([]entity.User, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository on db.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, u *entity.User) error {
	if !u.Role.Valid() {
		return fmt.Errorf("user %s: invalid role %q", u.Email, u.Role)
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if gormadapter.IsUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, exception.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user %s: %w", u.Email, err)
	}
	return nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&u).Error
	return notFound(&u, err, "user with email "+email)
}

func (r *gormUserRepository) FindFirstByRole(ctx context.Context, role entity.UserRole) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("id").First(&u).Error
	return notFound(&u, err, "user with role "+string(role))
}

func (r *gormUserRepository) SearchByEmail(ctx context.Context, fragment string, limit int) ([]entity.User, error) {
	var users []entity.User
	q := r.db.WithContext(ctx).Limit(clampLimit(limit))
	fragment = strings.TrimSpace(fragment)
	switch {
	case fragment == "":
		q = q.Order("id")
	case isPostgres(r.db):
		q = q.Where(`email ILIKE ? ESCAPE '\' OR similarity(email, ?) > ?`, containsPattern(fragment), fragment, similarityThreshold).
			Order(similarityOrder("email", fragment, "id"))
	default:
		q = q.Where(`LOWER(email) LIKE ? ESCAPE '\'`, containsPattern(strings.ToLower(fragment))).Order("id")
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to search users by email: %w", err)
	}
	return users, nil
}

func notFound[T any](v *T, err error, what string) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", what, exception.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", what, err)
	}
	return v, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	}
	return limit
}

// similarityOrder sorts by trigram similarity of column to term, then by tieBreak.
func similarityOrder(column, term, tieBreak string) clause.OrderBy {
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                "similarity(" + column + ", ?) DESC, " + tieBreak,
		Vars:               []interface{}{term},
		WithoutParentheses: true,
	}}
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
