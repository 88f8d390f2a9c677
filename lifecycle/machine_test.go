package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vat-einvoice/models"
)

func TestTransition_HappyPath(t *testing.T) {
	now := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	inv := validInvoice()

	inv, err := Transition(inv, EventSubmit, Params{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, inv.Status)

	inv, err = Transition(inv, EventApprove, Params{ActorRole: models.RoleHOD})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, inv.Status)

	inv, err = Transition(inv, EventRequestSign, Params{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingSign, inv.Status)

	inv, err = Transition(inv, EventSign, Params{InvoiceNumber: 1024, Signature: "c2ln", Now: now})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSignedPendingIssue, inv.Status)
	assert.Equal(t, int64(1024), inv.InvoiceNumber)
	assert.True(t, inv.Signed)
	assert.Equal(t, "c2ln", inv.DigitalSignature)
	require.NotNil(t, inv.SignedAt)
	assert.Equal(t, now, *inv.SignedAt)

	inv, err = Transition(inv, EventIssue, Params{TaxCode: "M1-24-ABC12-00001024", Now: now})
	require.NoError(t, err)
	assert.Equal(t, models.StatusIssued, inv.Status)
	assert.Equal(t, "M1-24-ABC12-00001024", inv.TaxCode)
	assert.Equal(t, models.TaxApproved, inv.TaxStatus)
	require.NotNil(t, inv.IssuedAt)
}

func TestTransition_Guards(t *testing.T) {
	t.Run("Submit with validation errors leaves the invoice alone", func(t *testing.T) {
		inv := validInvoice()
		inv.BuyerAddress = ""

		got, err := Transition(inv, EventSubmit, Params{})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, inv, got)
	})

	t.Run("Approve requires the approver role", func(t *testing.T) {
		inv := validInvoice()
		inv.Status = models.StatusPendingApproval

		_, err := Transition(inv, EventApprove, Params{ActorRole: models.RoleAccountant})
		assert.ErrorIs(t, err, ErrStateGuard)

		got, err := Transition(inv, EventApprove, Params{ActorRole: models.RoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
	})

	t.Run("Sign refuses an invoice that already has a number", func(t *testing.T) {
		inv := validInvoice()
		inv.Status = models.StatusApproved
		inv.InvoiceNumber = 7

		got, err := Transition(inv, EventSign, Params{InvoiceNumber: 8})
		var guard *GuardError
		require.ErrorAs(t, err, &guard)
		assert.Equal(t, EventSign, guard.Event)
		assert.Contains(t, guard.Reason, "0000007")
		assert.Equal(t, int64(7), got.InvoiceNumber)
	})

	t.Run("Sign needs a number from the signer", func(t *testing.T) {
		inv := validInvoice()
		inv.Status = models.StatusApproved

		_, err := Transition(inv, EventSign, Params{})
		assert.ErrorIs(t, err, ErrStateGuard)
	})

	t.Run("Sign can be retried after a half-finished signing", func(t *testing.T) {
		inv := validInvoice()
		inv.Status = models.StatusSignedPendingIssue
		inv.Signed = true

		got, err := Transition(inv, EventSign, Params{InvoiceNumber: 12})
		require.NoError(t, err)
		assert.Equal(t, int64(12), got.InvoiceNumber)
	})

	t.Run("Sign from draft", func(t *testing.T) {
		_, err := Transition(validInvoice(), EventSign, Params{InvoiceNumber: 1})
		assert.ErrorIs(t, err, ErrStateGuard)
	})

	t.Run("Issue without a number is refused in every status", func(t *testing.T) {
		for _, s := range models.AllStatuses() {
			inv := validInvoice()
			inv.Status = s

			_, err := Transition(inv, EventIssue, Params{TaxCode: "X"})
			assert.ErrorIs(t, err, ErrStateGuard, s.Label())
		}
	})

	t.Run("Issue from approved is refused", func(t *testing.T) {
		inv := validInvoice()
		inv.Status = models.StatusApproved
		inv.InvoiceNumber = 3

		_, err := Transition(inv, EventIssue, Params{TaxCode: "X"})
		assert.ErrorIs(t, err, ErrStateGuard)
	})

	t.Run("Cancel requires confirmation", func(t *testing.T) {
		inv := validInvoice()
		inv.Status = models.StatusPendingSign

		_, err := Transition(inv, EventCancel, Params{})
		assert.ErrorIs(t, err, ErrStateGuard)

		got, err := Transition(inv, EventCancel, Params{Confirmed: true})
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, got.Status)
		assert.False(t, got.Signed)
		assert.Equal(t, int64(0), got.InvoiceNumber)
	})

	t.Run("Cancel from approved is refused", func(t *testing.T) {
		inv := validInvoice()
		inv.Status = models.StatusApproved

		_, err := Transition(inv, EventCancel, Params{Confirmed: true})
		assert.ErrorIs(t, err, ErrStateGuard)
	})

	t.Run("Resend only after a tax error", func(t *testing.T) {
		inv := validInvoice()
		inv.Status = models.StatusIssued
		inv.InvoiceNumber = 5
		inv.TaxStatus = models.TaxApproved

		_, err := Transition(inv, EventResend, Params{TaxCode: "Y"})
		assert.ErrorIs(t, err, ErrStateGuard)

		inv.TaxStatus = models.TaxTB03
		got, err := Transition(inv, EventResend, Params{TaxCode: "Y"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusIssued, got.Status)
		assert.Equal(t, "Y", got.TaxCode)
		assert.Equal(t, models.TaxApproved, got.TaxStatus)
	})

	t.Run("Unknown event", func(t *testing.T) {
		_, err := Transition(validInvoice(), Event("archive"), Params{})
		assert.ErrorIs(t, err, ErrUnknownEvent)
	})
}

func TestAvailableEvents(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(inv *models.Invoice)
		expected []Event
	}{
		{
			name:     "Draft",
			mutate:   func(inv *models.Invoice) {},
			expected: []Event{EventSubmit},
		},
		{
			name:     "Approved",
			mutate:   func(inv *models.Invoice) { inv.Status = models.StatusApproved },
			expected: []Event{EventRequestSign, EventSign},
		},
		{
			name: "Signed pending issue",
			mutate: func(inv *models.Invoice) {
				inv.Status = models.StatusSignedPendingIssue
				inv.InvoiceNumber = 9
			},
			expected: []Event{EventIssue},
		},
		{
			name: "Issued with a rejected submission",
			mutate: func(inv *models.Invoice) {
				inv.Status = models.StatusIssued
				inv.InvoiceNumber = 9
				inv.TaxStatus = models.TaxRejected
			},
			expected: []Event{EventResend, EventDerive},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvoice()
			tt.mutate(&inv)
			assert.Equal(t, tt.expected, AvailableEvents(inv))
		})
	}
}
