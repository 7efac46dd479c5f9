package billing

import (
	"context"
	"fmt"

	"github.com/salesdesk/backend/internal/domain/billing"
	"github.com/salesdesk/backend/internal/domain/catalog"
	"github.com/salesdesk/backend/internal/domain/partner"
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/salesdesk/backend/internal/infrastructure/receipt"
	"github.com/salesdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BillService serves the read side of billing: bill lookups, listings and
// on-demand receipt PDFs. Bills are only ever written by the sale workflow,
// so this service takes the read-only repository capability.
type BillService struct {
	bills     billing.BillRepository
	customers partner.CustomerRepository
	products  catalog.ProductRepository
	renderer  ReceiptRenderer
	pdf       receipt.PDFRenderer
	logger    *zap.Logger
}

// NewBillService creates a new bill service
func NewBillService(
	bills billing.BillRepository,
	customers partner.CustomerRepository,
	products catalog.ProductRepository,
	renderer ReceiptRenderer,
	pdf receipt.PDFRenderer,
	logger *zap.Logger,
) *BillService {
	return &BillService{
		bills:     bills,
		customers: customers,
		products:  products,
		renderer:  renderer,
		pdf:       pdf,
		logger:    logger,
	}
}

// GetBill retrieves a bill by ID
func (s *BillService) GetBill(ctx context.Context, id uint) (*BillResponse, error) {
	bill, err := s.bills.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, shared.NewNotFound(fmt.Sprintf("Bill %d not found", id))
	}

	resp := ToBillResponse(bill)
	return &resp, nil
}

// ListBills retrieves a page of bills
func (s *BillService) ListBills(ctx context.Context, page shared.Page) (*shared.Paginated[BillResponse], error) {
	result, err := s.bills.FindPage(ctx, page)
	if err != nil {
		return nil, err
	}

	return shared.NewPaginated(
		ToBillResponses(result.Items),
		result.Total,
		shared.Page{Skip: result.Skip, Take: result.Take},
	), nil
}

// RenderReceiptPDF renders a bill's receipt as a PDF document. Product names
// are resolved best effort: a product deleted since the sale falls back to
// its numeric label rather than failing the whole receipt.
func (s *BillService) RenderReceiptPDF(ctx context.Context, billID uint) ([]byte, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "render_receipt_pdf")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrBillID, int(billID))

	bill, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if bill == nil {
		return nil, shared.NewNotFound(fmt.Sprintf("Bill %d not found", billID))
	}

	customer, err := s.customers.FindByID(ctx, bill.CustomerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if customer == nil {
		return nil, shared.NewNotFound(fmt.Sprintf("Customer %d not found", bill.CustomerID))
	}

	productNames := make(map[uint]string, len(bill.Lines))
	for _, line := range bill.Lines {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			s.logger.Warn("Product lookup failed during receipt rendering",
				zap.Uint("product_id", line.ProductID),
				zap.Uint("bill_id", bill.ID),
				zap.Error(err))
			continue
		}
		if product != nil {
			productNames[product.ID] = product.Name
		}
	}

	html, err := s.renderer.RenderBill(ctx, bill, customer, productNames)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// PDF conversion drives a headless browser; tag its samples so the
	// flame graph separates it from request plumbing.
	var pdf []byte
	var pdfErr error
	telemetry.WithProfilingLabels(ctx, telemetry.RegionLabels("receipt_pdf", nil), func(c context.Context) {
		pdf, pdfErr = s.pdf.RenderPDF(c, html)
	})
	if pdfErr != nil {
		telemetry.RecordError(span, pdfErr)
		return nil, pdfErr
	}

	return pdf, nil
}
