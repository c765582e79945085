package repository

import (
	"context"
	"testing"

	"github.com/eaglebank/personnel-service/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func johnDoe() models.PersonalDetails {
	return models.PersonalDetails{
		Firstname:   "John",
		Lastname:    "Doe",
		Salary:      2000,
		Address:     "Street 1 City",
		PhoneNumber: "0643724597",
	}
}

func TestMemoryEmployeeRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryEmployeeRepository()

	t.Run("success - assigns id and timestamps", func(t *testing.T) {
		record, err := repo.Create(ctx, johnDoe())
		require.NoError(t, err)
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "John", record.Firstname)
		assert.False(t, record.CreatedAt.IsZero())
		assert.Equal(t, record.CreatedAt, record.UpdatedAt)

		found, err := repo.FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record, found)
	})

	t.Run("validation error - missing required fields", func(t *testing.T) {
		_, err := repo.Create(ctx, models.PersonalDetails{Lastname: "Doe"})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, []string{"firstname", "phoneNumber"}, validationErr.Fields)
	})
}

func TestMemoryEmployeeRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryEmployeeRepository()

	records, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	first, err := repo.Create(ctx, johnDoe())
	require.NoError(t, err)
	jane := johnDoe()
	jane.Firstname = "Jane"
	second, err := repo.Create(ctx, jane)
	require.NoError(t, err)

	records, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	ids := []string{records[0].ID, records[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestMemoryEmployeeRepository_UpdateByID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryEmployeeRepository()
	created, err := repo.Create(ctx, johnDoe())
	require.NoError(t, err)

	changes := models.EmployeeChanges{Firstname: ptr("Jo"), Salary: ptr(1500.0)}

	t.Run("success - merges only supplied fields", func(t *testing.T) {
		updated, err := repo.UpdateByID(ctx, created.ID, changes)
		require.NoError(t, err)
		assert.Equal(t, "Jo", updated.Firstname)
		assert.Equal(t, 1500.0, updated.Salary)
		assert.Equal(t, created.Lastname, updated.Lastname)
		assert.Equal(t, created.Address, updated.Address)
		assert.Equal(t, created.PhoneNumber, updated.PhoneNumber)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	})

	t.Run("idempotent - same update twice", func(t *testing.T) {
		once, err := repo.UpdateByID(ctx, created.ID, changes)
		require.NoError(t, err)
		twice, err := repo.UpdateByID(ctx, created.ID, changes)
		require.NoError(t, err)
		once.UpdatedAt, twice.UpdatedAt = created.UpdatedAt, created.UpdatedAt
		assert.Equal(t, once, twice)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.UpdateByID(ctx, "missing", changes)
		assert.ErrorIs(t, err, ErrEmployeeNotFound)
	})
}

func TestMemoryEmployeeRepository_DeleteByID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryEmployeeRepository()
	created, err := repo.Create(ctx, johnDoe())
	require.NoError(t, err)

	deleted, err := repo.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = repo.DeleteByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}
