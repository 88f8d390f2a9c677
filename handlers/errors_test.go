package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/lifecycle"
	"github.com/yourusername/vat-einvoice/models"
	"github.com/yourusername/vat-einvoice/repository"
	"github.com/yourusername/vat-einvoice/submission"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Validation",
			err:            &lifecycle.ValidationErrors{Fields: []lifecycle.FieldError{{Field: "buyer_address", Message: "required"}}},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "Guard",
			err:            &lifecycle.GuardError{Event: lifecycle.EventIssue, From: models.StatusApproved, Reason: "not signed"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "StateGuard",
		},
		{
			name:           "In flight",
			err:            submission.ErrInFlight,
			expectedStatus: http.StatusConflict,
			expectedCode:   "InFlight",
		},
		{
			name:           "Signature mismatch",
			err:            fmt.Errorf("%w: ed25519: invalid signature", submission.ErrSignatureMismatch),
			expectedStatus: http.StatusConflict,
			expectedCode:   "SignatureMismatch",
		},
		{
			name:           "Unknown product",
			err:            fmt.Errorf("%w: %d", errUnknownProduct, 99),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Status conflict",
			err:            fmt.Errorf("approve: %w", repository.ErrStatusConflict),
			expectedStatus: http.StatusConflict,
			expectedCode:   "StatusConflict",
		},
		{
			name:           "External call",
			err:            &submission.ExternalCallError{Op: "issue", Retryable: true, Hint: "resend later", Err: context.DeadlineExceeded},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "ExternalCall",
		},
		{
			name:           "Catalog",
			err:            &calc.CatalogError{ProductID: 3, Err: errors.New("timeout")},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "CatalogLookup",
		},
		{
			name:           "Not found",
			err:            repository.ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Bad input",
			err:            fmt.Errorf("quantity: %w", calc.ErrNegativeValue),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unexpected",
			err:            errors.New("disk full"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(1, models.RoleAccountant)
			router.GET("/test", func(c *gin.Context) {
				respondError(c, tt.err)
			})

			w, body := perform(t, router, http.MethodGet, "/test", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["code"])
			}
		})
	}
}

func TestRespondErrorKeepsExternalMessage(t *testing.T) {
	router := newRouter(1, models.RoleAccountant)
	router.GET("/test", func(c *gin.Context) {
		respondError(c, &submission.ExternalCallError{Op: "sign", Retryable: true, Hint: "press Sign again", Err: submission.ErrSignIncomplete})
	})

	_, body := perform(t, router, http.MethodGet, "/test", nil)

	assert.Equal(t, submission.ErrSignIncomplete.Error(), body["error"])
	assert.Equal(t, "press Sign again", body["hint"])
	assert.Equal(t, true, body["retryable"])
}
