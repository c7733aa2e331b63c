package router

import (
	"errors"
	"net"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
)

// shouldRetry tells outages apart from errors that will fail the same way
// on every delivery
func shouldRetry(logger *logger.Logger, err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}

	if ierr.IsLedgerUnavailable(err) {
		return true
	}

	if ierr.IsValidation(err) ||
		ierr.IsNotFound(err) ||
		ierr.IsAlreadyExists(err) ||
		ierr.IsInvalidTransition(err) ||
		ierr.IsSequenceRegression(err) {
		logger.Debugw("non-retryable handler error", "error", err)
		return false
	}

	return true
}
