package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Username: "ana", Email: "ana@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	byName, err := repo.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana", byEmail.Username)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", byID.PasswordHash)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryEnforcesUniqueUsernameAndEmail(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Username: "ana", Email: "ana@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserDTO{Username: "ana", Email: "other@example.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "username"))

	_, err = repo.Create(ctx, CreateUserDTO{Username: "bea", Email: "ana@example.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "email"))
}

func TestFromModelOmitsPasswordHash(t *testing.T) {
	assert.Nil(t, FromModel(nil))
	dto := CreateUserDTO{Username: "ana", Email: "a@b.c", PasswordHash: "secret"}.ToModel()
	out := FromModel(dto)
	assert.Equal(t, "ana", out.Username)
	assert.Equal(t, "a@b.c", out.Email)
}
