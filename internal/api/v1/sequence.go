package v1

import (
	"net/http"

	"github.com/flexprice/posbilling/internal/api/dto"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/service"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/gin-gonic/gin"
)

type SequenceHandler struct {
	sequenceService service.SequenceService
	logger          *logger.Logger
}

func NewSequenceHandler(sequenceService service.SequenceService, logger *logger.Logger) *SequenceHandler {
	return &SequenceHandler{
		sequenceService: sequenceService,
		logger:          logger,
	}
}

// GetState godoc
// @Summary Get invoice sequence state
// @Description Current fiscal year, last issued serial, override and a preview of the next number
// @Tags Sequence
// @Produce json
// @Success 200 {object} dto.SequenceStateResponse
// @Router /sequence [get]
func (h *SequenceHandler) GetState(c *gin.Context) {
	resp, err := h.sequenceService.GetState(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetOverride godoc
// @Summary Pin invoice numbering to a fiscal year
// @Tags Sequence
// @Accept json
// @Produce json
// @Param request body dto.SetOverrideFiscalYearRequest true "Fiscal year"
// @Success 200 {object} dto.SequenceStateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /sequence/override [post]
func (h *SequenceHandler) SetOverride(c *gin.Context) {
	var req dto.SetOverrideFiscalYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.sequenceService.SetOverrideFiscalYear(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Infow("fiscal year override set",
		"fiscal_year", req.FiscalYear,
		"user_id", types.GetUserID(c.Request.Context()),
	)
	c.JSON(http.StatusOK, resp)
}

// SetNextSerial godoc
// @Summary Move the counter forward
// @Description Lowering the counter below the ledger is rejected
// @Tags Sequence
// @Accept json
// @Produce json
// @Param request body dto.SetNextSerialRequest true "Next serial"
// @Success 200 {object} dto.SequenceStateResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /sequence/next-serial [post]
func (h *SequenceHandler) SetNextSerial(c *gin.Context) {
	var req dto.SetNextSerialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.sequenceService.SetNextSerial(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Reset godoc
// @Summary Clear the override and resync with the ledger
// @Tags Sequence
// @Produce json
// @Success 200 {object} dto.SequenceStateResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /sequence/reset [post]
func (h *SequenceHandler) Reset(c *gin.Context) {
	resp, err := h.sequenceService.Reset(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
