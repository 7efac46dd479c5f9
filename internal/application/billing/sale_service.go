package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/salesdesk/backend/internal/domain/billing"
	"github.com/salesdesk/backend/internal/domain/catalog"
	"github.com/salesdesk/backend/internal/domain/partner"
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/salesdesk/backend/internal/infrastructure/mail"
	"github.com/salesdesk/backend/internal/infrastructure/storage"
	"github.com/salesdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Warning messages attached to a SaleResponse when a post-commit side effect
// fails. The sale itself has already committed at that point.
const (
	warnReceiptRender = "receipt rendering failed"
	warnReceiptUpload = "receipt upload failed"
	warnReceiptEmail  = "receipt email failed"
	warnBillCache     = "bill cache failed"
	warnProductCache  = "product cache eviction failed"
)

const receiptContentType = "text/html; charset=utf-8"

// BillCache primes the bill cache after a sale commits
type BillCache interface {
	Prime(ctx context.Context, bill *billing.Bill) error
}

// ProductCache drops cached product entries whose stock changed inside the
// sale transaction
type ProductCache interface {
	Evict(ctx context.Context, id uint) error
}

// ReceiptRenderer produces the HTML receipt for a committed bill
type ReceiptRenderer interface {
	RenderBill(ctx context.Context, bill *billing.Bill, customer *partner.Customer, productNames map[uint]string) (string, error)
	CompanyName() string
}

// SaleService orchestrates the multi-entity sale workflow: resolve the
// customer, then atomically decrement stock and persist the bill, then run
// the post-commit side effects (receipt, email, cache maintenance) whose
// failures degrade to warnings instead of failing the sale.
//
// The product and bill repositories must be the raw store-backed ones, not
// cache decorators: reads inside the transaction have to be authoritative,
// and evicting cache entries before commit would let a concurrent reader
// re-cache the pre-commit value. Cache maintenance happens after commit via
// BillCache and ProductCache.
type SaleService struct {
	customers       partner.CustomerRepository
	products        catalog.ProductRepository
	bills           billing.BillRepository
	tx              shared.TxManager
	billCache       BillCache
	productCache    ProductCache
	renderer        ReceiptRenderer
	store           storage.ObjectStorage
	mailer          mail.Sender
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewSaleService creates a new sale service
func NewSaleService(
	customers partner.CustomerRepository,
	products catalog.ProductRepository,
	bills billing.BillRepository,
	tx shared.TxManager,
	billCache BillCache,
	productCache ProductCache,
	renderer ReceiptRenderer,
	store storage.ObjectStorage,
	mailer mail.Sender,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		customers:    customers,
		products:     products,
		bills:        bills,
		tx:           tx,
		billCache:    billCache,
		productCache: productCache,
		renderer:     renderer,
		store:        store,
		mailer:       mailer,
		logger:       logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *SaleService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreateSale sells to an existing customer identified by ID
func (s *SaleService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResponse, error) {
	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, shared.NewNotFound(fmt.Sprintf("Customer %d not found", req.CustomerID))
	}

	return s.finishSale(ctx, telemetry.SaleChannelDirect, customer, req.Lines)
}

// CreateSaleByEmail sells to the customer carrying the email, registering a
// minimal customer record first when the email is unknown. The registration
// is deliberately outside the sale transaction: if the sale itself fails,
// the new customer stays, matching the create-or-reuse contract.
func (s *SaleService) CreateSaleByEmail(ctx context.Context, req CreateSaleByEmailRequest) (*SaleResponse, error) {
	customer, err := s.customers.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if customer == nil {
		customer, err = partner.NewCustomerByEmail(req.Email)
		if err != nil {
			return nil, err
		}
		if err := s.customers.Save(ctx, customer); err != nil {
			return nil, err
		}
		s.logger.Info("Registered customer for sale",
			zap.Uint("customer_id", customer.ID),
			zap.String("email", customer.Email))
	}

	return s.finishSale(ctx, telemetry.SaleChannelByEmail, customer, req.Lines)
}

// finishSale runs the transactional core and the post-commit side effects
func (s *SaleService) finishSale(ctx context.Context, channel telemetry.SaleChannel, customer *partner.Customer, lines []SaleLineRequest) (*SaleResponse, error) {
	if len(lines) == 0 {
		return nil, shared.NewValidation("Sale must contain at least one item")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, int(customer.ID),
		telemetry.SpanAttrLineCount, len(lines),
		telemetry.SpanAttrSaleChannel, string(channel),
	)

	var bill *billing.Bill
	productNames := make(map[uint]string, len(lines))

	var txErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("sale_create", nil), func(c context.Context) {
		txErr = s.tx.Transaction(c, func(txCtx context.Context) error {
			b, err := billing.NewBill(customer.ID)
			if err != nil {
				return err
			}

			for _, line := range lines {
				if line.SalePrice == nil {
					return shared.NewValidation("Sale line price is required").
						WithMeta("productId", line.ProductID)
				}

				product, err := s.products.FindByID(txCtx, line.ProductID)
				if err != nil {
					return err
				}
				if product == nil {
					return shared.NewNotFound(fmt.Sprintf("Product %d not found", line.ProductID))
				}

				if err := s.products.DecrementStock(txCtx, product.ID, line.Quantity); err != nil {
					return err
				}

				if _, err := b.AddLine(product.ID, line.Quantity, *line.SalePrice); err != nil {
					return err
				}
				productNames[product.ID] = product.Name
			}

			if err := s.bills.Save(txCtx, b); err != nil {
				return err
			}

			bill = b
			return nil
		})
	})
	if txErr != nil {
		telemetry.RecordError(span, txErr)
		return nil, txErr
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBillID, int(bill.ID),
		telemetry.SpanAttrAmount, bill.TotalAmount.String(),
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordSale(ctx, channel, bill.TotalAmount)
	}

	resp := &SaleResponse{Bill: ToBillResponse(bill)}
	s.deliverReceipt(ctx, bill, customer, productNames, resp)
	s.maintainCaches(ctx, bill, productNames, resp)

	s.logger.Info("Sale completed",
		zap.Uint("bill_id", bill.ID),
		zap.Uint("customer_id", customer.ID),
		zap.String("total", bill.TotalAmount.String()),
		zap.Int("lines", bill.LineCount()),
		zap.Int("warnings", len(resp.Warnings)))

	return resp, nil
}

// deliverReceipt renders, stores and emails the receipt. Every failure is
// absorbed into a response warning; a failed render skips upload and email
// since both need the HTML.
func (s *SaleService) deliverReceipt(ctx context.Context, bill *billing.Bill, customer *partner.Customer, productNames map[uint]string, resp *SaleResponse) {
	html, err := s.renderer.RenderBill(ctx, bill, customer, productNames)
	s.recordReceiptStage(ctx, telemetry.ReceiptStageRender, err == nil)
	if err != nil {
		s.logger.Warn("Receipt rendering failed",
			zap.Uint("bill_id", bill.ID),
			zap.Error(err))
		resp.Warnings = append(resp.Warnings, warnReceiptRender)
		return
	}

	key := receiptObjectKey(customer.ID, bill.ID, bill.CreatedAt)
	location, err := s.store.Upload(ctx, key, []byte(html), receiptContentType)
	s.recordReceiptStage(ctx, telemetry.ReceiptStageUpload, err == nil)
	if err != nil {
		s.logger.Warn("Receipt upload failed",
			zap.Uint("bill_id", bill.ID),
			zap.String("key", key),
			zap.Error(err))
		resp.Warnings = append(resp.Warnings, warnReceiptUpload)
	} else {
		resp.ReceiptLocation = location
	}

	subject := fmt.Sprintf("Receipt #%d from %s", bill.ID, s.renderer.CompanyName())
	err = s.mailer.Send(ctx, []string{customer.Email}, subject, html)
	s.recordReceiptStage(ctx, telemetry.ReceiptStageEmail, err == nil)
	if err != nil {
		s.logger.Warn("Receipt email failed",
			zap.Uint("bill_id", bill.ID),
			zap.String("to", customer.Email),
			zap.Error(err))
		resp.Warnings = append(resp.Warnings, warnReceiptEmail)
	}
}

// recordReceiptStage reports a receipt delivery stage outcome when metrics
// are wired.
func (s *SaleService) recordReceiptStage(ctx context.Context, stage telemetry.ReceiptStage, succeeded bool) {
	if s.businessMetrics == nil {
		return
	}
	s.businessMetrics.RecordReceiptDelivery(ctx, stage, succeeded)
}

// maintainCaches primes the new bill and evicts the sold products, after the
// transaction has committed
func (s *SaleService) maintainCaches(ctx context.Context, bill *billing.Bill, productNames map[uint]string, resp *SaleResponse) {
	if err := s.billCache.Prime(ctx, bill); err != nil {
		s.logger.Warn("Bill cache prime failed",
			zap.Uint("bill_id", bill.ID),
			zap.Error(err))
		resp.Warnings = append(resp.Warnings, warnBillCache)
	}

	evictFailed := false
	for id := range productNames {
		if err := s.productCache.Evict(ctx, id); err != nil {
			evictFailed = true
			s.logger.Warn("Product cache eviction failed",
				zap.Uint("product_id", id),
				zap.Uint("bill_id", bill.ID),
				zap.Error(err))
		}
	}
	if evictFailed {
		resp.Warnings = append(resp.Warnings, warnProductCache)
	}
}

// receiptObjectKey builds the storage key for a bill's receipt. Keys are
// grouped by customer and carry the bill's creation time so re-renders of
// the same bill never collide with older objects.
func receiptObjectKey(customerID, billID uint, at time.Time) string {
	return fmt.Sprintf("receipts/%d/bill-%d-%d.html", customerID, billID, at.Unix())
}
