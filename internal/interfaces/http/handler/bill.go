package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	billingapp "github.com/salesdesk/backend/internal/application/billing"
)

// BillHandler handles bill API endpoints. Bills are read-only over HTTP;
// they are created exclusively through the sale endpoints.
type BillHandler struct {
	BaseHandler
	billService *billingapp.BillService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService *billingapp.BillService) *BillHandler {
	return &BillHandler{
		billService: billService,
	}
}

// GetByID godoc
// @Summary      Get bill by ID
// @Description  Retrieve a single bill with its sale lines
// @Tags         bills
// @Produce      json
// @Param        id path int true "Bill ID"
// @Success      200 {object} billing.BillResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /bills/{id} [get]
func (h *BillHandler) GetByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	bill, err := h.billService.GetBill(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// List godoc
// @Summary      List bills
// @Description  List bills with skip/take pagination
// @Tags         bills
// @Produce      json
// @Param        skip query int false "Rows to skip" default(0)
// @Param        take query int false "Rows to return" default(20)
// @Success      200 {object} shared.Paginated[billing.BillResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /bills [get]
func (h *BillHandler) List(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	bills, err := h.billService.ListBills(c.Request.Context(), page)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bills)
}

// ReceiptPDF godoc
// @Summary      Download a bill receipt as PDF
// @Description  Render the bill receipt and return it as a PDF document
// @Tags         bills
// @Produce      application/pdf
// @Param        id path int true "Bill ID"
// @Success      200 {file} file
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /bills/{id}/receipt.pdf [get]
func (h *BillHandler) ReceiptPDF(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	pdf, err := h.billService.RenderReceiptPDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", fmt.Sprintf("bill-%d-receipt.pdf", id)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
