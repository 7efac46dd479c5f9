package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/salesdesk/backend/internal/application/billing"
)

// SaleHandler handles sale API endpoints
type SaleHandler struct {
	BaseHandler
	saleService *billingapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *billingapp.SaleService) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
	}
}

// Create godoc
// @Summary      Record a sale
// @Description  Atomically decrement stock and create a bill for an existing customer. Receipt delivery and cache maintenance run after commit; their failures are reported as warnings, not errors.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body billing.CreateSaleRequest true "Sale request"
// @Success      201 {object} billing.SaleResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	var req billingapp.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}

// CreateByEmail godoc
// @Summary      Record a sale by customer email
// @Description  Record a sale addressed by email, registering the customer first if the email is unknown. The registration survives even when the sale itself fails.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body billing.CreateSaleByEmailRequest true "Sale request"
// @Success      201 {object} billing.SaleResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /sales/by-email [post]
func (h *SaleHandler) CreateByEmail(c *gin.Context) {
	var req billingapp.CreateSaleByEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	sale, err := h.saleService.CreateSaleByEmail(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}
