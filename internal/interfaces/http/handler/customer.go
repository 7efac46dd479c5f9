package handler

import (
	"github.com/gin-gonic/gin"

	partnerapp "github.com/salesdesk/backend/internal/application/partner"
)

// CustomerHandler handles customer API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// Create godoc
// @Summary      Create a new customer
// @Description  Register a customer; the email must not already be in use
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body partner.CreateCustomerRequest true "Customer creation request"
// @Success      201 {object} partner.CustomerResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, customer)
}

// GetByID godoc
// @Summary      Get customer by ID
// @Description  Retrieve a single customer, tax ID decrypted
// @Tags         customers
// @Produce      json
// @Param        id path int true "Customer ID"
// @Success      200 {object} partner.CustomerResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// List godoc
// @Summary      List customers
// @Description  List customers with skip/take pagination; rows omit encrypted fields
// @Tags         customers
// @Produce      json
// @Param        skip query int false "Rows to skip" default(0)
// @Param        take query int false "Rows to return" default(20)
// @Success      200 {object} shared.Paginated[partner.CustomerListResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	customers, err := h.customerService.ListCustomers(c.Request.Context(), page)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customers)
}

// Update godoc
// @Summary      Update a customer
// @Description  Update customer fields; omitted fields are left unchanged
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path int true "Customer ID"
// @Param        request body partner.UpdateCustomerRequest true "Customer update request"
// @Success      200 {object} partner.CustomerResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req partnerapp.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// Delete godoc
// @Summary      Delete a customer
// @Description  Delete a customer that has no bills
// @Tags         customers
// @Produce      json
// @Param        id path int true "Customer ID"
// @Success      204
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
