package persistence

import (
	"context"
	"testing"

	"github.com/salesdesk/backend/internal/domain/partner"
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNewCustomer(t *testing.T, email, first, last string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(email, first, last)
	require.NoError(t, err)
	return c
}

func TestGormCustomerRepository_FindByEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	customer := mustNewCustomer(t, "ada@example.com", "Ada", "Lovelace")
	require.NoError(t, repo.Save(ctx, customer))

	t.Run("matches regardless of caller casing", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "ADA@Example.COM")

		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, customer.ID, found.ID)
		assert.Equal(t, "ada@example.com", found.Email)
	})

	t.Run("reports absence as nil, nil", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "nobody@example.com")

		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormCustomerRepository_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, mustNewCustomer(t, "dup@example.com", "First", "Writer")))

	err := repo.Save(ctx, mustNewCustomer(t, "dup@example.com", "Second", "Writer"))

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindDuplicate))
}

func TestGormCustomerRepository_UpdatePersistsCiphertext(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	customer := mustNewCustomer(t, "tax@example.com", "Tax", "Payer")
	require.NoError(t, repo.Save(ctx, customer))

	customer.SetTaxID("v1:ZmFrZS1jaXBoZXJ0ZXh0")
	require.NoError(t, repo.Update(ctx, customer))

	found, err := repo.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "v1:ZmFrZS1jaXBoZXJ0ZXh0", found.TaxID)
}
