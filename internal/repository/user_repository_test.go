package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climanegocios/platform/internal/domain/entity"
	"github.com/climanegocios/platform/internal/repository/repositorytest"
	"github.com/climanegocios/platform/pkg/platform/support/util/exception"
)

func newUser(email, username string, role entity.UserRole) *entity.User {
	return &entity.User{
		Email:          email,
		Username:       username,
		HashedPassword: "hash",
		IsActive:       true,
		Role:           role,
	}
}

func TestUserCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(repositorytest.NewSQLiteDB(t))

	u := newUser("ana@example.com", "ana", entity.RoleManager)
	u.Preferences = entity.JSONMap{"theme": "dark"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := repo.FindByEmail(ctx, " ANA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)
	assert.Equal(t, entity.RoleManager, got.Role)
	assert.Equal(t, "dark", got.Preferences["theme"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUserCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(repositorytest.NewSQLiteDB(t))

	require.NoError(t, repo.Create(ctx, newUser("ana@example.com", "ana", entity.RoleUser)))
	err := repo.Create(ctx, newUser("ana@example.com", "ana2", entity.RoleUser))
	assert.ErrorIs(t, err, exception.ErrAlreadyExists)
}

func TestUserCreateRejectsInvalidRole(t *testing.T) {
	repo := NewUserRepository(repositorytest.NewSQLiteDB(t))
	err := repo.Create(context.Background(), newUser("x@example.com", "x", entity.UserRole("root")))
	assert.ErrorContains(t, err, "invalid role")
}

func TestUserFindFirstByRole(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(repositorytest.NewSQLiteDB(t))

	_, err := repo.FindFirstByRole(ctx, entity.RoleAdmin)
	assert.ErrorIs(t, err, exception.ErrNotFound)

	require.NoError(t, repo.Create(ctx, newUser("u@example.com", "u", entity.RoleUser)))
	require.NoError(t, repo.Create(ctx, newUser("first@example.com", "first", entity.RoleAdmin)))
	require.NoError(t, repo.Create(ctx, newUser("second@example.com", "second", entity.RoleAdmin)))

	admin, err := repo.FindFirstByRole(ctx, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "first", admin.Username)
}

func TestUserSearchByEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(repositorytest.NewSQLiteDB(t))
	for _, u := range []*entity.User{
		newUser("maria@climanegocios.com", "maria", entity.RoleUser),
		newUser("joao@example.com", "joao", entity.RoleUser),
		newUser("marcos@climanegocios.com", "marcos", entity.RoleViewer),
	} {
		require.NoError(t, repo.Create(ctx, u))
	}

	users, err := repo.SearchByEmail(ctx, "CLIMANEGOCIOS", 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "maria", users[0].Username)

	users, err = repo.SearchByEmail(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultSearchLimit, clampLimit(0))
	assert.Equal(t, DefaultSearchLimit, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxSearchLimit, clampLimit(10_000))
}
