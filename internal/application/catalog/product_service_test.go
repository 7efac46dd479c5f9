package catalog

import (
	"context"
	"testing"

	"github.com/salesdesk/backend/internal/domain/catalog"
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uint) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindPage(ctx context.Context, page shared.Page) (*shared.Paginated[catalog.Product], error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[catalog.Product]), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) FindByName(ctx context.Context, name string) (*catalog.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id uint, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func newTestService() (*ProductService, *MockProductRepository) {
	repo := new(MockProductRepository)
	return NewProductService(repo, zap.NewNop()), repo
}

func createTestProduct(id uint, name string, price string, stock int) *catalog.Product {
	product, _ := catalog.NewProduct(name, decimal.RequireFromString(price), stock)
	product.ID = id
	return product
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func stock(n int) *int {
	return &n
}

func TestProductService_CreateProduct_Success(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	repo.On("FindByName", ctx, "Wireless Mouse").Return(nil, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*catalog.Product).ID = 9
		}).
		Return(nil)

	result, err := service.CreateProduct(ctx, CreateProductRequest{
		Name:  "Wireless Mouse",
		Price: price("10.00"),
		Stock: stock(5),
	})

	require.NoError(t, err)
	assert.Equal(t, uint(9), result.ID)
	assert.Equal(t, "Wireless Mouse", result.Name)
	assert.True(t, decimal.RequireFromString("10.00").Equal(result.Price))
	assert.Equal(t, 5, result.Stock)
	repo.AssertExpectations(t)
}

func TestProductService_CreateProduct_DuplicateName(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	existing := createTestProduct(3, "Wireless Mouse", "8.00", 2)
	repo.On("FindByName", ctx, "Wireless Mouse").Return(existing, nil)

	result, err := service.CreateProduct(ctx, CreateProductRequest{
		Name:  "Wireless Mouse",
		Price: price("10.00"),
		Stock: stock(5),
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindDuplicate))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_CreateProduct_NegativePrice(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	repo.On("FindByName", ctx, "Bad Product").Return(nil, nil)

	result, err := service.CreateProduct(ctx, CreateProductRequest{
		Name:  "Bad Product",
		Price: price("-1.00"),
		Stock: stock(5),
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindValidation))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_GetProduct_Success(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	product := createTestProduct(9, "Wireless Mouse", "10.00", 5)
	repo.On("FindByID", ctx, uint(9)).Return(product, nil)

	result, err := service.GetProduct(ctx, 9)

	require.NoError(t, err)
	assert.Equal(t, uint(9), result.ID)
	assert.Equal(t, "Wireless Mouse", result.Name)
}

func TestProductService_GetProduct_NotFound(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(404)).Return(nil, nil)

	result, err := service.GetProduct(ctx, 404)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestProductService_ListProducts(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	products := []catalog.Product{
		*createTestProduct(1, "Mouse", "10.00", 5),
		*createTestProduct(2, "Keyboard", "40.00", 3),
	}
	page := shared.Page{Skip: 0, Take: 20}
	repo.On("FindPage", ctx, page).Return(shared.NewPaginated(products, 12, page), nil)

	result, err := service.ListProducts(ctx, page)

	require.NoError(t, err)
	assert.Equal(t, int64(12), result.Total)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Mouse", result.Items[0].Name)
	assert.Equal(t, "Keyboard", result.Items[1].Name)
}

func TestProductService_UpdateProduct_Success(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	product := createTestProduct(9, "Wireless Mouse", "10.00", 5)
	repo.On("FindByID", ctx, uint(9)).Return(product, nil)
	repo.On("FindByName", ctx, "Gaming Mouse").Return(nil, nil)
	repo.On("Update", ctx, product).Return(nil)

	newName := "Gaming Mouse"
	result, err := service.UpdateProduct(ctx, 9, UpdateProductRequest{
		Name:  &newName,
		Price: price("14.50"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Gaming Mouse", result.Name)
	assert.True(t, decimal.RequireFromString("14.50").Equal(result.Price))
	assert.Equal(t, 5, result.Stock, "absent stock field keeps its value")
	repo.AssertExpectations(t)
}

func TestProductService_UpdateProduct_SameNameSkipsDuplicateCheck(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	product := createTestProduct(9, "Wireless Mouse", "10.00", 5)
	repo.On("FindByID", ctx, uint(9)).Return(product, nil)
	repo.On("Update", ctx, product).Return(nil)

	sameName := "Wireless Mouse"
	_, err := service.UpdateProduct(ctx, 9, UpdateProductRequest{
		Name:  &sameName,
		Stock: stock(7),
	})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "FindByName", mock.Anything, mock.Anything)
}

func TestProductService_UpdateProduct_DuplicateName(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	product := createTestProduct(9, "Wireless Mouse", "10.00", 5)
	other := createTestProduct(3, "Gaming Mouse", "20.00", 1)
	repo.On("FindByID", ctx, uint(9)).Return(product, nil)
	repo.On("FindByName", ctx, "Gaming Mouse").Return(other, nil)

	newName := "Gaming Mouse"
	result, err := service.UpdateProduct(ctx, 9, UpdateProductRequest{Name: &newName})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindDuplicate))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(404)).Return(nil, nil)

	result, err := service.UpdateProduct(ctx, 404, UpdateProductRequest{Price: price("1.00")})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestProductService_DeleteProduct_Success(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	product := createTestProduct(9, "Wireless Mouse", "10.00", 5)
	repo.On("FindByID", ctx, uint(9)).Return(product, nil)
	repo.On("Delete", ctx, uint(9)).Return(nil)

	err := service.DeleteProduct(ctx, 9)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestProductService_DeleteProduct_NotFound(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(404)).Return(nil, nil)

	err := service.DeleteProduct(ctx, 404)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProductService_DeleteProduct_ReferencedBySale(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	product := createTestProduct(9, "Wireless Mouse", "10.00", 5)
	repo.On("FindByID", ctx, uint(9)).Return(product, nil)
	repo.On("Delete", ctx, uint(9)).
		Return(shared.NewForeignKey("Product is referenced by existing sales"))

	err := service.DeleteProduct(ctx, 9)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindForeignKey))
}
