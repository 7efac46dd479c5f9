package models

import (
	"github.com/salesdesk/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer domain entity.
// TaxID stores the key-management ciphertext, never the plaintext.
type CustomerModel struct {
	BaseModel
	Email     string `gorm:"type:varchar(200);not null;uniqueIndex:idx_customers_email"`
	FirstName string `gorm:"type:varchar(100)"`
	LastName  string `gorm:"type:varchar(100)"`
	Address   string `gorm:"type:varchar(500)"`
	Phone     string `gorm:"type:varchar(50)"`
	TaxID     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		Email:      m.Email,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Address:    m.Address,
		Phone:      m.Phone,
		TaxID:      m.TaxID,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Email = c.Email
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.Address = c.Address
	m.Phone = c.Phone
	m.TaxID = c.TaxID
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
