package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knguessan/moodlewatch/internal/domain/port/driven"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, "ama@example.ci", "Ama Koffi")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "ama@example.ci", created.Email)
	assert.Equal(t, "Ama Koffi", created.FullName)
	assert.False(t, created.HasPlatformAccount())
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := repo.GetByEmail(ctx, "ama@example.ci")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestUserRepo_GetMissing(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))

	user, err := repo.GetByEmail(context.Background(), "nobody@example.ci")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, "ama@example.ci", "")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "ama@example.ci", "")
	assert.ErrorIs(t, err, driven.ErrEmailTaken)
}

func TestUserRepo_SetAndClearPlatformAccount(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, "ama@example.ci", "")
	require.NoError(t, err)

	err = repo.SetPlatformAccount(ctx, "ama@example.ci", "etudiant1", "ciphertext-blob")
	require.NoError(t, err)

	user, err := repo.GetByEmail(ctx, "ama@example.ci")
	require.NoError(t, err)
	assert.True(t, user.HasPlatformAccount())
	assert.Equal(t, "etudiant1", user.PlatformUsername)
	assert.Equal(t, "ciphertext-blob", user.EncryptedSecret)

	err = repo.ClearPlatformAccount(ctx, "ama@example.ci")
	require.NoError(t, err)

	user, err = repo.GetByEmail(ctx, "ama@example.ci")
	require.NoError(t, err)
	assert.False(t, user.HasPlatformAccount())
	assert.Empty(t, user.PlatformUsername)
	assert.Empty(t, user.EncryptedSecret)
}

func TestUserRepo_SetPlatformAccountUnknownUser(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))

	err := repo.SetPlatformAccount(context.Background(), "nobody@example.ci", "u", "c")
	assert.Error(t, err)
}

func TestUserRepo_ListWithPlatformAccount(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))
	ctx := context.Background()

	for _, email := range []string{"a@example.ci", "b@example.ci", "c@example.ci"} {
		_, err := repo.Create(ctx, email, "")
		require.NoError(t, err)
	}
	require.NoError(t, repo.SetPlatformAccount(ctx, "a@example.ci", "user-a", "blob-a"))
	require.NoError(t, repo.SetPlatformAccount(ctx, "c@example.ci", "user-c", "blob-c"))

	users, err := repo.ListWithPlatformAccount(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2, "only connected users appear in the scan roster")
	assert.Equal(t, "a@example.ci", users[0].Email)
	assert.Equal(t, "c@example.ci", users[1].Email)
}

func TestUserRepo_ListWithPlatformAccountEmpty(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))

	users, err := repo.ListWithPlatformAccount(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}
