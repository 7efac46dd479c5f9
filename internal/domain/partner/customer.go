package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/salesdesk/backend/internal/domain/shared"
)

// Customer represents a buyer. Email is the natural key used by the legacy
// sale path to create-or-reuse customers; the store enforces its uniqueness.
type Customer struct {
	shared.BaseEntity
	Email     string
	FirstName string
	LastName  string
	Address   string
	Phone     string
	// TaxID holds the key-management ciphertext while the customer is at
	// rest (store and cache); only DTO assembly sees the plaintext.
	TaxID string
}

// NewCustomer creates a new customer
func NewCustomer(email, firstName, lastName string) (*Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Email:      email,
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
	}, nil
}

// NewCustomerByEmail creates the minimal customer the legacy sale path
// registers implicitly when a sale names an unknown email.
func NewCustomerByEmail(email string) (*Customer, error) {
	return NewCustomer(email, "", "")
}

// FullName returns the displayable name, falling back to the email
func (c *Customer) FullName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}

// UpdateName updates the name fields
func (c *Customer) UpdateName(firstName, lastName string) {
	c.FirstName = strings.TrimSpace(firstName)
	c.LastName = strings.TrimSpace(lastName)
	c.UpdatedAt = time.Now()
}

// UpdateEmail replaces the customer's email
func (c *Customer) UpdateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return err
	}
	c.Email = email
	c.UpdatedAt = time.Now()
	return nil
}

// SetAddress updates the postal address
func (c *Customer) SetAddress(address string) {
	c.Address = strings.TrimSpace(address)
	c.UpdatedAt = time.Now()
}

// SetPhone updates the phone number
func (c *Customer) SetPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone != "" {
		validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
		if !validPhone.MatchString(phone) {
			return shared.NewValidation("Invalid phone format")
		}
	}
	c.Phone = phone
	c.UpdatedAt = time.Now()
	return nil
}

// SetTaxID stores the (already encrypted) tax identifier
func (c *Customer) SetTaxID(ciphertext string) {
	c.TaxID = ciphertext
	c.UpdatedAt = time.Now()
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewValidation("Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewValidation("Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewValidation("Invalid email format")
	}
	return nil
}
