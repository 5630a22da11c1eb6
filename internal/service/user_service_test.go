package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ipl_server/internal/model/dto"
	"github.com/qs3c/ipl_server/internal/repository"
	"github.com/qs3c/ipl_server/internal/testutil"
)

func setupUserService(t *testing.T) (*UserService, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	service := NewUserService(repository.NewUserRepository(db))

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return service, cleanup
}

func TestUserService_Create(t *testing.T) {
	service, cleanup := setupUserService(t)
	defer cleanup()

	info, err := service.Create(&dto.CreateUserRequest{
		Username:    "warga_a1",
		Password:    "password123",
		Name:        "Budi",
		HouseNumber: "A-1",
		HouseType:   "Type 60",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "Type 60", info.HouseType)
	assert.False(t, info.IsAdmin)

	profile, err := service.GetProfile(info.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budi", profile.Name)
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	service, cleanup := setupUserService(t)
	defer cleanup()

	req := &dto.CreateUserRequest{Username: "warga_a2", Password: "password123", Name: "Siti"}
	_, err := service.Create(req)
	require.NoError(t, err)

	_, err = service.Create(req)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestUserService_Create_UnknownHouseType(t *testing.T) {
	service, cleanup := setupUserService(t)
	defer cleanup()

	_, err := service.Create(&dto.CreateUserRequest{
		Username:  "warga_a3",
		Password:  "password123",
		Name:      "Andi",
		HouseType: "garage",
	})
	assert.ErrorIs(t, err, ErrUnknownHouseType)
}

func TestUserService_List(t *testing.T) {
	service, cleanup := setupUserService(t)
	defer cleanup()

	for _, name := range []string{"warga_b1", "warga_b2"} {
		_, err := service.Create(&dto.CreateUserRequest{Username: name, Password: "password123", Name: name})
		require.NoError(t, err)
	}

	users, err := service.List()
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = service.GetProfile("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
