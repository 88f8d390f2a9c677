package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/lifecycle"
	"github.com/yourusername/vat-einvoice/repository"
	"github.com/yourusername/vat-einvoice/submission"
)

var errUnknownProduct = errors.New("product is not in the catalog")

// respondError writes the response for err. Unrecognised errors become a 500 and are
// attached to the gin context for the request logger.
func respondError(c *gin.Context, err error) {
	var (
		validation *lifecycle.ValidationErrors
		guard      *lifecycle.GuardError
		external   *submission.ExternalCallError
		catalog    *calc.CatalogError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invoice is incomplete", "fields": validation.Fields})
	case errors.As(err, &guard):
		c.JSON(http.StatusConflict, gin.H{"error": guard.Error(), "code": "StateGuard", "event": guard.Event, "status": guard.From})
	case errors.Is(err, submission.ErrInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "InFlight"})
	case errors.Is(err, submission.ErrSignatureMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "SignatureMismatch"})
	case errors.Is(err, repository.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "StatusConflict"})
	case errors.As(err, &external):
		body := gin.H{"error": external.Error(), "code": "ExternalCall", "op": external.Op, "retryable": external.Retryable}
		if external.Hint != "" {
			body["hint"] = external.Hint
		}
		c.JSON(http.StatusBadGateway, body)
	case errors.As(err, &catalog):
		c.JSON(http.StatusBadGateway, gin.H{"error": catalog.Error(), "code": "CatalogLookup", "retryable": true})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case isBadInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func isBadInput(err error) bool {
	for _, target := range []error{
		calc.ErrUnknownField,
		calc.ErrNegativeValue,
		calc.ErrLastLine,
		calc.ErrRowNotFound,
		calc.ErrUnknownDecision,
		calc.ErrNoDuplicate,
		lifecycle.ErrUnknownEvent,
		errUnknownProduct,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
