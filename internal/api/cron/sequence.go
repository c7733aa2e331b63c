package cron

import (
	"net/http"
	"time"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/service"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/gin-gonic/gin"
)

// SequenceHandler exposes the numbering jobs to an external scheduler
type SequenceHandler struct {
	sequenceService   service.SequenceService
	ledgerSyncService service.LedgerSyncService
	logger            *logger.Logger
}

func NewSequenceHandler(
	sequenceService service.SequenceService,
	ledgerSyncService service.LedgerSyncService,
	logger *logger.Logger,
) *SequenceHandler {
	return &SequenceHandler{
		sequenceService:   sequenceService,
		ledgerSyncService: ledgerSyncService,
		logger:            logger,
	}
}

// ReplayLedgerRequest selects the fiscal year to replay
type ReplayLedgerRequest struct {
	// fiscal_year defaults to the year the counter is on
	FiscalYear types.FiscalYear `json:"fiscal_year,omitempty"`
}

type ReplayLedgerResponse struct {
	FiscalYear types.FiscalYear `json:"fiscal_year"`
	Replayed   int              `json:"replayed"`
}

// Rollover resets the counter for a new fiscal year unless an override is pinned
func (h *SequenceHandler) Rollover(c *gin.Context) {
	h.logger.Infow("starting fiscal year rollover cron job", "time", time.Now().UTC().Format(time.RFC3339))

	if err := h.sequenceService.Rollover(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}

	resp, err := h.sequenceService.GetState(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ReplayLedger appends every issued bill of a fiscal year that the ledger
// has not seen yet
func (h *SequenceHandler) ReplayLedger(c *gin.Context) {
	ctx := c.Request.Context()

	var req ReplayLedgerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Errorw("failed to parse request parameters", "error", err)
			_ = c.Error(ierr.WithError(err).
				WithHint("Invalid request parameters").
				Mark(ierr.ErrValidation))
			return
		}
	}

	if req.FiscalYear == "" {
		state, err := h.sequenceService.GetState(ctx)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if state.CurrentFiscalYear == nil {
			_ = c.Error(ierr.NewError("sequence not initialized").
				WithHint("Provide a fiscal year to replay").
				Mark(ierr.ErrValidation))
			return
		}
		req.FiscalYear = *state.CurrentFiscalYear
	}

	replayed, err := h.ledgerSyncService.Replay(ctx, req.FiscalYear)
	if err != nil {
		h.logger.Errorw("ledger replay failed", "fiscal_year", req.FiscalYear, "error", err)
		_ = c.Error(err)
		return
	}

	h.logger.Infow("completed ledger replay cron job",
		"fiscal_year", req.FiscalYear,
		"replayed", replayed,
	)
	c.JSON(http.StatusOK, ReplayLedgerResponse{
		FiscalYear: req.FiscalYear,
		Replayed:   replayed,
	})
}
