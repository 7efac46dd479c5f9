package billing

import (
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleLine represents one product position on a bill
type SaleLine struct {
	shared.BaseEntity
	BillID    uint
	ProductID uint
	Quantity  int
	SalePrice decimal.Decimal
}

// NewSaleLine creates a sale line
func NewSaleLine(productID uint, quantity int, salePrice decimal.Decimal) (*SaleLine, error) {
	if productID == 0 {
		return nil, shared.NewValidation("Sale line must reference a product")
	}
	if quantity <= 0 {
		return nil, shared.NewValidation("Sale line quantity must be positive")
	}
	if salePrice.IsNegative() {
		return nil, shared.NewValidation("Sale price cannot be negative")
	}

	return &SaleLine{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Quantity:   quantity,
		SalePrice:  salePrice,
	}, nil
}

// Amount returns quantity × sale price
func (l SaleLine) Amount() decimal.Decimal {
	return l.SalePrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Bill represents the invoice produced by one sale.
// Invariant: TotalAmount equals the sum of Amount() over Lines.
type Bill struct {
	shared.BaseEntity
	CustomerID  uint
	TotalAmount decimal.Decimal
	Lines       []SaleLine
}

// NewBill opens an empty bill shell bound to a customer
func NewBill(customerID uint) (*Bill, error) {
	if customerID == 0 {
		return nil, shared.NewValidation("Bill must belong to a customer")
	}

	return &Bill{
		BaseEntity:  shared.NewBaseEntity(),
		CustomerID:  customerID,
		TotalAmount: decimal.Zero,
	}, nil
}

// AddLine appends a sale line and accumulates the running total
func (b *Bill) AddLine(productID uint, quantity int, salePrice decimal.Decimal) (*SaleLine, error) {
	line, err := NewSaleLine(productID, quantity, salePrice)
	if err != nil {
		return nil, err
	}

	b.Lines = append(b.Lines, *line)
	b.TotalAmount = b.TotalAmount.Add(line.Amount())
	return line, nil
}

// HasLines reports whether any line has been added
func (b *Bill) HasLines() bool {
	return len(b.Lines) > 0
}

// LineCount returns the number of lines on the bill
func (b *Bill) LineCount() int {
	return len(b.Lines)
}
