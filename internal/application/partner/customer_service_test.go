package partner

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/salesdesk/backend/internal/domain/partner"
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uint) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context) ([]partner.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindPage(ctx context.Context, page shared.Page) (*shared.Paginated[partner.Customer], error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[partner.Customer]), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, email string) (*partner.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

// MockEncryptor is a mock implementation of keymgmt.Encryptor
type MockEncryptor struct {
	mock.Mock
}

func (m *MockEncryptor) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockEncryptor) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newTestService() (*CustomerService, *MockCustomerRepository, *MockEncryptor) {
	repo := new(MockCustomerRepository)
	encryptor := new(MockEncryptor)
	return NewCustomerService(repo, encryptor, zap.NewNop()), repo, encryptor
}

func createTestCustomer(id uint, email string) *partner.Customer {
	customer, _ := partner.NewCustomer(email, "Alice", "Smith")
	customer.ID = id
	return customer
}

// envelope builds the at-rest form the service writes for a ciphertext
func envelope(ciphertext string) string {
	return taxIDPrefix + base64.StdEncoding.EncodeToString([]byte(ciphertext))
}

func strPtr(s string) *string {
	return &s
}

func TestCustomerService_CreateCustomer_Success(t *testing.T) {
	service, repo, encryptor := newTestService()
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "alice@example.com").Return(nil, nil)
	encryptor.On("Encrypt", ctx, []byte("TAX-123")).Return([]byte("cipher"), nil)

	var saved *partner.Customer
	repo.On("Save", ctx, mock.AnythingOfType("*partner.Customer")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*partner.Customer)
			saved.ID = 7
		}).
		Return(nil)

	result, err := service.CreateCustomer(ctx, CreateCustomerRequest{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
		Phone:     "+1 555 0100",
		TaxID:     "TAX-123",
	})

	require.NoError(t, err)
	assert.Equal(t, uint(7), result.ID)
	assert.Equal(t, "alice@example.com", result.Email)
	assert.Equal(t, "Alice Smith", result.FullName)
	assert.Equal(t, "TAX-123", result.TaxID, "response carries the plaintext")
	require.NotNil(t, saved)
	assert.Equal(t, envelope("cipher"), saved.TaxID, "store carries the envelope")
	repo.AssertExpectations(t)
	encryptor.AssertExpectations(t)
}

func TestCustomerService_CreateCustomer_DuplicateEmail(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	existing := createTestCustomer(3, "alice@example.com")
	repo.On("FindByEmail", ctx, "alice@example.com").Return(existing, nil)

	result, err := service.CreateCustomer(ctx, CreateCustomerRequest{
		Email: "alice@example.com",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindDuplicate))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerService_CreateCustomer_NoTaxIDSkipsEncryption(t *testing.T) {
	service, repo, encryptor := newTestService()
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "bob@example.com").Return(nil, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*partner.Customer")).Return(nil)

	result, err := service.CreateCustomer(ctx, CreateCustomerRequest{
		Email: "bob@example.com",
	})

	require.NoError(t, err)
	assert.Empty(t, result.TaxID)
	encryptor.AssertNotCalled(t, "Encrypt", mock.Anything, mock.Anything)
	encryptor.AssertNotCalled(t, "Decrypt", mock.Anything, mock.Anything)
}

func TestCustomerService_CreateCustomer_InvalidPhone(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "alice@example.com").Return(nil, nil)

	result, err := service.CreateCustomer(ctx, CreateCustomerRequest{
		Email: "alice@example.com",
		Phone: "not@a#phone",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindValidation))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerService_GetCustomer_DecryptsTaxID(t *testing.T) {
	service, repo, encryptor := newTestService()
	ctx := context.Background()

	customer := createTestCustomer(7, "alice@example.com")
	customer.SetTaxID(envelope("cipher"))
	repo.On("FindByID", ctx, uint(7)).Return(customer, nil)
	encryptor.On("Decrypt", ctx, []byte("cipher")).Return([]byte("TAX-123"), nil)

	result, err := service.GetCustomer(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, "TAX-123", result.TaxID)
	encryptor.AssertExpectations(t)
}

func TestCustomerService_GetCustomer_EmptyTaxID(t *testing.T) {
	service, repo, encryptor := newTestService()
	ctx := context.Background()

	customer := createTestCustomer(7, "alice@example.com")
	repo.On("FindByID", ctx, uint(7)).Return(customer, nil)

	result, err := service.GetCustomer(ctx, 7)

	require.NoError(t, err)
	assert.Empty(t, result.TaxID)
	encryptor.AssertNotCalled(t, "Decrypt", mock.Anything, mock.Anything)
}

func TestCustomerService_GetCustomer_UnrecognizedEnvelope(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	customer := createTestCustomer(7, "alice@example.com")
	customer.SetTaxID("legacy-plaintext-value")
	repo.On("FindByID", ctx, uint(7)).Return(customer, nil)

	result, err := service.GetCustomer(ctx, 7)

	// A tax ID that cannot be unwrapped is an operational fault, not a
	// blank field.
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindApplication))
}

func TestCustomerService_GetCustomer_NotFound(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(404)).Return(nil, nil)

	result, err := service.GetCustomer(ctx, 404)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestCustomerService_ListCustomers(t *testing.T) {
	service, repo, encryptor := newTestService()
	ctx := context.Background()

	alice := createTestCustomer(1, "alice@example.com")
	alice.SetTaxID(envelope("cipher"))
	bob := createTestCustomer(2, "bob@example.com")

	page := shared.Page{Skip: 0, Take: 20}
	repo.On("FindPage", ctx, page).
		Return(shared.NewPaginated([]partner.Customer{*alice, *bob}, 2, page), nil)

	result, err := service.ListCustomers(ctx, page)

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "alice@example.com", result.Items[0].Email)
	// List items have no tax ID field, so nothing gets decrypted.
	encryptor.AssertNotCalled(t, "Decrypt", mock.Anything, mock.Anything)
}

func TestCustomerService_UpdateCustomer_Success(t *testing.T) {
	service, repo, encryptor := newTestService()
	ctx := context.Background()

	customer := createTestCustomer(7, "alice@example.com")
	repo.On("FindByID", ctx, uint(7)).Return(customer, nil)
	encryptor.On("Encrypt", ctx, []byte("TAX-999")).Return([]byte("cipher2"), nil)
	encryptor.On("Decrypt", ctx, []byte("cipher2")).Return([]byte("TAX-999"), nil)
	repo.On("Update", ctx, customer).Return(nil)

	result, err := service.UpdateCustomer(ctx, 7, UpdateCustomerRequest{
		FirstName: strPtr("Alicia"),
		Address:   strPtr("1 Main St"),
		TaxID:     strPtr("TAX-999"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Alicia", result.FirstName)
	assert.Equal(t, "Smith", result.LastName, "absent last name keeps its value")
	assert.Equal(t, "1 Main St", result.Address)
	assert.Equal(t, "TAX-999", result.TaxID)
	repo.AssertExpectations(t)
}

func TestCustomerService_UpdateCustomer_DuplicateEmail(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	customer := createTestCustomer(7, "alice@example.com")
	other := createTestCustomer(8, "taken@example.com")
	repo.On("FindByID", ctx, uint(7)).Return(customer, nil)
	repo.On("FindByEmail", ctx, "taken@example.com").Return(other, nil)

	result, err := service.UpdateCustomer(ctx, 7, UpdateCustomerRequest{
		Email: strPtr("taken@example.com"),
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindDuplicate))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCustomerService_UpdateCustomer_SameEmailSkipsDuplicateCheck(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	customer := createTestCustomer(7, "alice@example.com")
	repo.On("FindByID", ctx, uint(7)).Return(customer, nil)
	repo.On("Update", ctx, customer).Return(nil)

	_, err := service.UpdateCustomer(ctx, 7, UpdateCustomerRequest{
		Email: strPtr("Alice@Example.com"),
		Phone: strPtr("+1 555 0100"),
	})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestCustomerService_UpdateCustomer_ClearTaxID(t *testing.T) {
	service, repo, encryptor := newTestService()
	ctx := context.Background()

	customer := createTestCustomer(7, "alice@example.com")
	customer.SetTaxID(envelope("cipher"))
	repo.On("FindByID", ctx, uint(7)).Return(customer, nil)
	repo.On("Update", ctx, customer).Return(nil)

	result, err := service.UpdateCustomer(ctx, 7, UpdateCustomerRequest{
		TaxID: strPtr(""),
	})

	require.NoError(t, err)
	assert.Empty(t, result.TaxID)
	assert.Empty(t, customer.TaxID, "explicit empty tax ID clears the stored envelope")
	encryptor.AssertNotCalled(t, "Encrypt", mock.Anything, mock.Anything)
}

func TestCustomerService_UpdateCustomer_NotFound(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(404)).Return(nil, nil)

	result, err := service.UpdateCustomer(ctx, 404, UpdateCustomerRequest{
		FirstName: strPtr("Nobody"),
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestCustomerService_DeleteCustomer_Success(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	customer := createTestCustomer(7, "alice@example.com")
	repo.On("FindByID", ctx, uint(7)).Return(customer, nil)
	repo.On("Delete", ctx, uint(7)).Return(nil)

	err := service.DeleteCustomer(ctx, 7)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCustomerService_DeleteCustomer_NotFound(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(404)).Return(nil, nil)

	err := service.DeleteCustomer(ctx, 404)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCustomerService_DeleteCustomer_HasBills(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	customer := createTestCustomer(7, "alice@example.com")
	repo.On("FindByID", ctx, uint(7)).Return(customer, nil)
	repo.On("Delete", ctx, uint(7)).
		Return(shared.NewForeignKey("Customer has existing bills"))

	err := service.DeleteCustomer(ctx, 7)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindForeignKey))
}
