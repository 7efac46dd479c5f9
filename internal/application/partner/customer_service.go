package partner

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/salesdesk/backend/internal/domain/partner"
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/salesdesk/backend/internal/infrastructure/keymgmt"
	"go.uber.org/zap"
)

// taxIDPrefix versions the at-rest envelope so a future key or scheme change
// can tell old ciphertexts apart
const taxIDPrefix = "v1:"

// CustomerService handles customer operations. Tax IDs are encrypted through
// the key management provider before they reach the store and decrypted only
// when a single customer is read back.
type CustomerService struct {
	customers partner.CustomerRepository
	encryptor keymgmt.Encryptor
	logger    *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(customers partner.CustomerRepository, encryptor keymgmt.Encryptor, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customers: customers,
		encryptor: encryptor,
		logger:    logger,
	}
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	existing, err := s.customers.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDuplicate(fmt.Sprintf("Customer with email '%s' already exists", req.Email))
	}

	customer, err := partner.NewCustomer(req.Email, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}

	if req.Address != "" {
		customer.SetAddress(req.Address)
	}
	if req.Phone != "" {
		if err := customer.SetPhone(req.Phone); err != nil {
			return nil, err
		}
	}
	if req.TaxID != "" {
		envelope, err := s.encryptTaxID(ctx, req.TaxID)
		if err != nil {
			return nil, err
		}
		customer.SetTaxID(envelope)
	}

	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer created",
		zap.Uint("customer_id", customer.ID),
		zap.String("email", customer.Email))

	return s.toResponse(ctx, customer)
}

// GetCustomer retrieves a customer by ID with the tax ID decrypted
func (s *CustomerService) GetCustomer(ctx context.Context, id uint) (*CustomerResponse, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, shared.NewNotFound(fmt.Sprintf("Customer %d not found", id))
	}

	return s.toResponse(ctx, customer)
}

// ListCustomers retrieves a page of customers. List items never carry tax
// IDs, so no decryption happens here.
func (s *CustomerService) ListCustomers(ctx context.Context, page shared.Page) (*shared.Paginated[CustomerListResponse], error) {
	result, err := s.customers.FindPage(ctx, page)
	if err != nil {
		return nil, err
	}

	return shared.NewPaginated(
		ToCustomerListResponses(result.Items),
		result.Total,
		shared.Page{Skip: result.Skip, Take: result.Take},
	), nil
}

// UpdateCustomer applies a partial update to a customer
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uint, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, shared.NewNotFound(fmt.Sprintf("Customer %d not found", id))
	}

	if req.Email != nil && !strings.EqualFold(*req.Email, customer.Email) {
		existing, err := s.customers.FindByEmail(ctx, *req.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != customer.ID {
			return nil, shared.NewDuplicate(fmt.Sprintf("Customer with email '%s' already exists", *req.Email))
		}
		if err := customer.UpdateEmail(*req.Email); err != nil {
			return nil, err
		}
	}

	if req.FirstName != nil || req.LastName != nil {
		firstName := customer.FirstName
		lastName := customer.LastName
		if req.FirstName != nil {
			firstName = *req.FirstName
		}
		if req.LastName != nil {
			lastName = *req.LastName
		}
		customer.UpdateName(firstName, lastName)
	}

	if req.Address != nil {
		customer.SetAddress(*req.Address)
	}
	if req.Phone != nil {
		if err := customer.SetPhone(*req.Phone); err != nil {
			return nil, err
		}
	}
	if req.TaxID != nil {
		envelope, err := s.encryptTaxID(ctx, *req.TaxID)
		if err != nil {
			return nil, err
		}
		customer.SetTaxID(envelope)
	}

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer updated", zap.Uint("customer_id", customer.ID))

	return s.toResponse(ctx, customer)
}

// DeleteCustomer removes a customer. Customers with bills cannot be deleted;
// the store's foreign key reports that case.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uint) error {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return shared.NewNotFound(fmt.Sprintf("Customer %d not found", id))
	}

	if err := s.customers.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Customer deleted",
		zap.Uint("customer_id", id),
		zap.String("email", customer.Email))
	return nil
}

// toResponse assembles the full response, decrypting the stored tax ID. A
// ciphertext that no longer decrypts is surfaced as an error rather than
// silently returning a blank field.
func (s *CustomerService) toResponse(ctx context.Context, c *partner.Customer) (*CustomerResponse, error) {
	taxID, err := s.decryptTaxID(ctx, c.TaxID)
	if err != nil {
		return nil, err
	}

	return &CustomerResponse{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  c.FullName(),
		Address:   c.Address,
		Phone:     c.Phone,
		TaxID:     taxID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

// encryptTaxID wraps the plaintext into the versioned at-rest envelope.
// Empty input clears the field without touching the encryptor.
func (s *CustomerService) encryptTaxID(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	ciphertext, err := s.encryptor.Encrypt(ctx, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return taxIDPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decryptTaxID unwraps the at-rest envelope back to plaintext
func (s *CustomerService) decryptTaxID(ctx context.Context, envelope string) (string, error) {
	if envelope == "" {
		return "", nil
	}

	if !strings.HasPrefix(envelope, taxIDPrefix) {
		return "", shared.NewApplication("Unrecognized tax ID envelope").
			WithMeta("prefix", taxIDPrefix)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(envelope, taxIDPrefix))
	if err != nil {
		return "", shared.Wrap(shared.KindApplication, "Malformed tax ID envelope", err)
	}

	plaintext, err := s.encryptor.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
