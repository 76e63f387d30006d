package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
)

func newDeviceFixture(userID uuid.UUID, hash string) *entities.Device {
	return &entities.Device{
		UserID:          userID,
		Name:            "iPhone 15",
		SecretEncrypted: "ciphertext",
		SecretHash:      hash,
		Environment:     entities.PushEnvironmentProduction,
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
}

func TestDeviceCreateAndGetBySecretHash(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	createDeviceTable(t, db)
	repo := NewDeviceRepository(db)

	device := newDeviceFixture(uuid.New(), "hash-1")
	require.NoError(t, repo.Create(context.Background(), device))

	got, err := repo.GetBySecretHash(context.Background(), "hash-1")
	require.NoError(t, err)
	assert.Equal(t, device.ID, got.ID)
	assert.Equal(t, entities.PushEnvironmentProduction, got.Environment)
}

func TestDeviceGetBySecretHash_FindsInactive(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	createDeviceTable(t, db)
	repo := NewDeviceRepository(db)

	device := newDeviceFixture(uuid.New(), "hash-1")
	require.NoError(t, repo.Create(context.Background(), device))
	require.NoError(t, repo.Deactivate(context.Background(), device.ID))

	got, err := repo.GetBySecretHash(context.Background(), "hash-1")
	require.NoError(t, err, "re-registration must find deactivated devices")
	assert.False(t, got.IsActive)
}

func TestDeviceUpdate_ReRegistration(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	createDeviceTable(t, db)
	repo := NewDeviceRepository(db)

	device := newDeviceFixture(uuid.New(), "hash-old")
	require.NoError(t, repo.Create(context.Background(), device))

	device.Name = "iPhone 16"
	device.SecretEncrypted = "newciphertext"
	device.SecretHash = "hash-new"
	device.Environment = entities.PushEnvironmentSandbox
	device.IsActive = true
	require.NoError(t, repo.Update(context.Background(), device))

	_, err := repo.GetBySecretHash(context.Background(), "hash-old")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	got, err := repo.GetBySecretHash(context.Background(), "hash-new")
	require.NoError(t, err)
	assert.Equal(t, "iPhone 16", got.Name)
	assert.Equal(t, entities.PushEnvironmentSandbox, got.Environment)
}

func TestDeviceListByUser_ActiveOnly(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	createDeviceTable(t, db)
	repo := NewDeviceRepository(db)

	userID := uuid.New()
	active := newDeviceFixture(userID, "hash-a")
	require.NoError(t, repo.Create(context.Background(), active))
	inactive := newDeviceFixture(userID, "hash-b")
	require.NoError(t, repo.Create(context.Background(), inactive))
	require.NoError(t, repo.Deactivate(context.Background(), inactive.ID))

	devices, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, active.ID, devices[0].ID)
}
