package billing

import (
	"time"

	"github.com/salesdesk/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// SaleLineRequest is one product position on a sale request. SalePrice is a
// pointer so the binding layer can tell "absent" from a legitimate zero price.
type SaleLineRequest struct {
	ProductID uint             `json:"productId" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,gt=0"`
	SalePrice *decimal.Decimal `json:"salePrice" binding:"required"`
}

// CreateSaleRequest sells to an existing customer identified by ID
type CreateSaleRequest struct {
	CustomerID uint              `json:"customerId" binding:"required"`
	Lines      []SaleLineRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateSaleByEmailRequest sells to a customer identified by email,
// registering a minimal customer record when the email is unknown
type CreateSaleByEmailRequest struct {
	Email string            `json:"email" binding:"required,email"`
	Lines []SaleLineRequest `json:"items" binding:"required,min=1,dive"`
}

// SaleLineResponse represents a persisted sale line in API responses
type SaleLineResponse struct {
	ProductID uint            `json:"productId"`
	Quantity  int             `json:"quantity"`
	SalePrice decimal.Decimal `json:"salePrice"`
	Amount    decimal.Decimal `json:"amount"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID          uint               `json:"id"`
	CustomerID  uint               `json:"customerId"`
	TotalAmount decimal.Decimal    `json:"total"`
	Lines       []SaleLineResponse `json:"items"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// SaleResponse is the outcome of a completed sale. Warnings carry the
// post-commit side effects (receipt, email, cache) that failed without
// affecting the sale itself.
type SaleResponse struct {
	Bill            BillResponse `json:"bill"`
	ReceiptLocation string       `json:"receiptLocation,omitempty"`
	Warnings        []string     `json:"warnings,omitempty"`
}

// ToBillResponse converts a domain Bill to BillResponse
func ToBillResponse(b *billing.Bill) BillResponse {
	lines := make([]SaleLineResponse, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = SaleLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			SalePrice: l.SalePrice,
			Amount:    l.Amount(),
		}
	}
	return BillResponse{
		ID:          b.ID,
		CustomerID:  b.CustomerID,
		TotalAmount: b.TotalAmount,
		Lines:       lines,
		CreatedAt:   b.CreatedAt,
	}
}

// ToBillResponses converts a slice of domain Bills to BillResponses
func ToBillResponses(bills []billing.Bill) []BillResponse {
	responses := make([]BillResponse, len(bills))
	for i, b := range bills {
		responses[i] = ToBillResponse(&b)
	}
	return responses
}
