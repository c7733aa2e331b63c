package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/flexprice/posbilling/internal/api/dto"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/service"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/gin-gonic/gin"
)

type BillHandler struct {
	billService service.BillService
	logger      *logger.Logger
}

func NewBillHandler(billService service.BillService, logger *logger.Logger) *BillHandler {
	return &BillHandler{
		billService: billService,
		logger:      logger,
	}
}

// CreateBill godoc
// @Summary Create a draft bill
// @Description Open a new draft bill with its line items and discount
// @Tags Bills
// @Accept json
// @Produce json
// @Param bill body dto.CreateBillRequest true "Bill"
// @Success 201 {object} dto.BillResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /bills [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	var req dto.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billService.CreateDraft(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetBill godoc
// @Summary Get a bill by ID
// @Tags Bills
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} dto.BillResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /bills/{id} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid bill id").
			WithHint("Bill ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billService.GetBill(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListBills godoc
// @Summary List bills
// @Description List bills newest first, optionally by status and fiscal year
// @Tags Bills
// @Produce json
// @Param filter query types.BillFilter false "Filter"
// @Success 200 {object} dto.ListBillsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /bills [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	var filter types.BillFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Errorw("failed to bind query parameters", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if filter.Limit == 0 {
		filter.Limit = types.FILTER_DEFAULT_LIMIT
	}

	resp, err := h.billService.ListBills(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateBill godoc
// @Summary Replace the lines of a draft bill
// @Tags Bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param bill body dto.UpdateBillRequest true "Bill"
// @Success 200 {object} dto.BillResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /bills/{id} [put]
func (h *BillHandler) UpdateBill(c *gin.Context) {
	var req dto.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billService.UpdateDraft(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateDetails godoc
// @Summary Update customer and payment details
// @Description Details stay editable on final bills; amounts do not
// @Tags Bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param details body dto.BillDetailsRequest true "Details"
// @Success 200 {object} dto.BillResponse
// @Router /bills/{id}/details [patch]
func (h *BillHandler) UpdateDetails(c *gin.Context) {
	var req dto.BillDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billService.UpdateDetails(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// FinalizeBill godoc
// @Summary Finalize a draft bill
// @Description Freeze totals and assign the next invoice number
// @Tags Bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param request body dto.FinalizeBillRequest false "Bill date"
// @Success 200 {object} dto.BillResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /bills/{id}/finalize [post]
func (h *BillHandler) FinalizeBill(c *gin.Context) {
	var req dto.FinalizeBillRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.billService.FinalizeBill(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PrintBill godoc
// @Summary Mark a final bill as printed
// @Tags Bills
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} dto.BillResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /bills/{id}/print [post]
func (h *BillHandler) PrintBill(c *gin.Context) {
	resp, err := h.billService.MarkPrinted(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VoidBill godoc
// @Summary Void a bill
// @Description A voided final bill keeps its invoice number; the number is never reissued
// @Tags Bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param request body dto.VoidBillRequest false "Reason"
// @Success 200 {object} dto.BillResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /bills/{id}/void [post]
func (h *BillHandler) VoidBill(c *gin.Context) {
	var req dto.VoidBillRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.billService.VoidBill(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// bindOptionalJSON binds the body when one was sent
func bindOptionalJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation)
	}
	return nil
}
