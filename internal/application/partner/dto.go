package partner

import (
	"time"

	"github.com/salesdesk/backend/internal/domain/partner"
)

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
	Address   string `json:"address" binding:"max=500"`
	Phone     string `json:"phone" binding:"max=50"`
	TaxID     string `json:"taxId" binding:"max=100"`
}

// UpdateCustomerRequest represents a partial update; absent fields keep
// their current value. An explicit empty TaxID clears the stored one.
type UpdateCustomerRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
	Address   *string `json:"address" binding:"omitempty,max=500"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	TaxID     *string `json:"taxId" binding:"omitempty,max=100"`
}

// CustomerResponse represents a customer in API responses. TaxID carries the
// decrypted plaintext; the envelope only ever exists at rest.
type CustomerResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	TaxID     string    `json:"taxId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerListResponse is the thinner list item. It deliberately omits the
// tax ID so listings never fan out into per-row decryption calls.
type CustomerListResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToCustomerListResponse converts a domain Customer to CustomerListResponse
func ToCustomerListResponse(c *partner.Customer) CustomerListResponse {
	return CustomerListResponse{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  c.FullName(),
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

// ToCustomerListResponses converts a slice of domain Customers to CustomerListResponses
func ToCustomerListResponses(customers []partner.Customer) []CustomerListResponse {
	responses := make([]CustomerListResponse, len(customers))
	for i, c := range customers {
		responses[i] = ToCustomerListResponse(&c)
	}
	return responses
}
