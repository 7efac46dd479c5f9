package models

import (
	"github.com/salesdesk/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// BillModel is the persistence model for the Bill domain entity. Lines are
// written together with the bill in one cascading insert and loaded with
// Preload on every read.
type BillModel struct {
	BaseModel
	CustomerID  uint            `gorm:"not null;index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Lines       []SaleLineModel `gorm:"foreignKey:BillID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// SaleLineModel is the persistence model for one product position on a bill.
type SaleLineModel struct {
	BaseModel
	BillID    uint            `gorm:"not null;index"`
	ProductID uint            `gorm:"not null;index"`
	Quantity  int             `gorm:"not null"`
	SalePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the persistence model to a domain Bill entity.
func (m *BillModel) ToDomain() *billing.Bill {
	lines := make([]billing.SaleLine, 0, len(m.Lines))
	for i := range m.Lines {
		lines = append(lines, *m.Lines[i].ToDomain())
	}
	return &billing.Bill{
		BaseEntity:  m.BaseModel.ToDomain(),
		CustomerID:  m.CustomerID,
		TotalAmount: m.TotalAmount,
		Lines:       lines,
	}
}

// FromDomain populates the persistence model from a domain Bill entity.
func (m *BillModel) FromDomain(b *billing.Bill) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.CustomerID = b.CustomerID
	m.TotalAmount = b.TotalAmount
	m.Lines = make([]SaleLineModel, 0, len(b.Lines))
	for i := range b.Lines {
		m.Lines = append(m.Lines, *SaleLineModelFromDomain(&b.Lines[i]))
	}
}

// BillModelFromDomain creates a new persistence model from a domain Bill entity.
func BillModelFromDomain(b *billing.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(b)
	return m
}

// ToDomain converts the persistence model to a domain SaleLine entity.
func (m *SaleLineModel) ToDomain() *billing.SaleLine {
	return &billing.SaleLine{
		BaseEntity: m.BaseModel.ToDomain(),
		BillID:     m.BillID,
		ProductID:  m.ProductID,
		Quantity:   m.Quantity,
		SalePrice:  m.SalePrice,
	}
}

// FromDomain populates the persistence model from a domain SaleLine entity.
func (m *SaleLineModel) FromDomain(l *billing.SaleLine) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.BillID = l.BillID
	m.ProductID = l.ProductID
	m.Quantity = l.Quantity
	m.SalePrice = l.SalePrice
}

// SaleLineModelFromDomain creates a new persistence model from a domain SaleLine entity.
func SaleLineModelFromDomain(l *billing.SaleLine) *SaleLineModel {
	m := &SaleLineModel{}
	m.FromDomain(l)
	return m
}
