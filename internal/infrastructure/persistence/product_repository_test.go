package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockProductRepository creates a GormProductRepository with a mocked SQL connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock, mockDB
}

func TestGormProductRepository_DecrementStock_SQL(t *testing.T) {
	t.Run("issues one conditional UPDATE", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1 WHERE id = \$2 AND stock >= \$3`).
			WithArgs(3, 42, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DecrementStock(context.Background(), 42, 3)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("re-reads stock when the guard refuses", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1 WHERE id = \$2 AND stock >= \$3`).
			WithArgs(3, 42, 3).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(42, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "stock"}).AddRow(42, 2))

		err := repo.DecrementStock(context.Background(), 42, 3)

		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a non-positive quantity without touching the store", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		err := repo.DecrementStock(context.Background(), 42, 0)

		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_DecrementStock_Behavior(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("decrements while stock covers the quantity", func(t *testing.T) {
		product := mustNewProduct(t, "Limited Batch", "20.00", 5)
		require.NoError(t, repo.Save(ctx, product))

		require.NoError(t, repo.DecrementStock(ctx, product.ID, 3))

		found, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Stock)
	})

	t.Run("refuses to oversell and keeps stock unchanged", func(t *testing.T) {
		product := mustNewProduct(t, "Scarce Batch", "20.00", 2)
		require.NoError(t, repo.Save(ctx, product))

		err := repo.DecrementStock(ctx, product.ID, 3)

		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindValidation))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, 2, domainErr.Metadata["available"])
		assert.Equal(t, 3, domainErr.Metadata["requested"])

		found, findErr := repo.FindByID(ctx, product.ID)
		require.NoError(t, findErr)
		assert.Equal(t, 2, found.Stock)
	})

	t.Run("drains stock exactly to zero", func(t *testing.T) {
		product := mustNewProduct(t, "Final Units", "20.00", 4)
		require.NoError(t, repo.Save(ctx, product))

		require.NoError(t, repo.DecrementStock(ctx, product.ID, 4))

		found, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, found.Stock)

		err = repo.DecrementStock(ctx, product.ID, 1)
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("reports NotFound for an unknown product", func(t *testing.T) {
		err := repo.DecrementStock(ctx, 987654, 1)

		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindNotFound))
	})
}

func TestGormProductRepository_FindByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	product := mustNewProduct(t, "House Blend", "8.00", 12)
	require.NoError(t, repo.Save(ctx, product))

	t.Run("finds by exact name, ignoring outer whitespace", func(t *testing.T) {
		found, err := repo.FindByName(ctx, "  House Blend ")

		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, product.ID, found.ID)
	})

	t.Run("reports absence as nil, nil", func(t *testing.T) {
		found, err := repo.FindByName(ctx, "No Such Blend")

		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}
