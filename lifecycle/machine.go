// Package lifecycle is the invoice status state machine: the transition table, the
// guards on each transition and the fields each transition writes.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/yourusername/vat-einvoice/models"
)

type Event string

const (
	EventSubmit      Event = "submit"
	EventApprove     Event = "approve"
	EventRequestSign Event = "request_sign"
	EventSign        Event = "sign"
	EventIssue       Event = "issue"
	EventCancel      Event = "cancel"
	EventResend      Event = "resend"
	EventDerive      Event = "derive"
)

// Params carries the inputs a transition needs from its caller.
type Params struct {
	ActorRole     string
	Confirmed     bool
	InvoiceNumber int64
	Signature     string
	TaxCode       string
	TaxStatus     models.TaxStatus
	Now           time.Time
}

func (p Params) now() time.Time {
	if p.Now.IsZero() {
		return time.Now()
	}
	return p.Now
}

type guardFunc func(inv *models.Invoice, p Params) error

type rule struct {
	from []models.InvoiceStatus
	// to is zero when the internal status does not change.
	to models.InvoiceStatus
	// precheck runs before the status check.
	precheck guardFunc
	guard    guardFunc
	apply    func(inv *models.Invoice, p Params)
}

var transitions = map[Event]rule{
	EventSubmit: {
		from: []models.InvoiceStatus{models.StatusDraft},
		to:   models.StatusPendingApproval,
		guard: func(inv *models.Invoice, _ Params) error {
			return Validate(*inv)
		},
	},
	EventApprove: {
		from: []models.InvoiceStatus{models.StatusPendingApproval},
		to:   models.StatusApproved,
		guard: func(inv *models.Invoice, p Params) error {
			if !models.CanApprove(p.ActorRole) {
				return guardErr(EventApprove, inv, "approver role required")
			}
			return nil
		},
	},
	EventRequestSign: {
		from: []models.InvoiceStatus{models.StatusApproved},
		to:   models.StatusPendingSign,
	},
	EventSign: {
		// A signed status with no number is a half-finished signing that may be retried.
		from: []models.InvoiceStatus{
			models.StatusApproved,
			models.StatusPendingSign,
			models.StatusSignedPendingIssue,
			models.StatusSigned,
		},
		to:       models.StatusSignedPendingIssue,
		precheck: requireNoNumber,
		guard: func(inv *models.Invoice, p Params) error {
			if p.InvoiceNumber <= 0 {
				return guardErr(EventSign, inv, "signing did not assign an invoice number")
			}
			return nil
		},
		apply: func(inv *models.Invoice, p Params) {
			at := p.now()
			inv.InvoiceNumber = p.InvoiceNumber
			inv.Signed = true
			if p.Signature != "" {
				inv.DigitalSignature = p.Signature
			}
			inv.SignedAt = &at
		},
	},
	EventIssue: {
		from:     []models.InvoiceStatus{models.StatusSignedPendingIssue, models.StatusSigned},
		to:       models.StatusIssued,
		precheck: requireNumber,
		guard: func(inv *models.Invoice, p Params) error {
			if p.TaxCode == "" {
				return guardErr(EventIssue, inv, "tax authority code missing")
			}
			return nil
		},
		apply: func(inv *models.Invoice, p Params) {
			at := p.now()
			recordTaxResult(inv, p)
			inv.IssuedAt = &at
		},
	},
	EventCancel: {
		from: []models.InvoiceStatus{models.StatusPendingApproval, models.StatusPendingSign},
		to:   models.StatusDraft,
		guard: func(inv *models.Invoice, p Params) error {
			if !p.Confirmed {
				return guardErr(EventCancel, inv, "cancellation must be confirmed")
			}
			return nil
		},
		apply: func(inv *models.Invoice, _ Params) {
			inv.Signed = false
			inv.DigitalSignature = ""
			inv.SignedAt = nil
		},
	},
	EventResend: {
		from: []models.InvoiceStatus{models.StatusSigned, models.StatusIssued},
		precheck: func(inv *models.Invoice, _ Params) error {
			if !inv.TaxStatus.CanRetry() {
				return guardErr(EventResend, inv, fmt.Sprintf("tax status %q does not allow a resend", inv.TaxStatus.Label()))
			}
			return nil
		},
		apply: func(inv *models.Invoice, p Params) {
			if p.TaxCode != "" {
				recordTaxResult(inv, p)
			}
		},
	},
}

// Transition applies ev to inv and returns the updated copy. A refused transition
// returns the input unchanged together with a *GuardError or *ValidationErrors.
func Transition(inv models.Invoice, ev Event, p Params) (models.Invoice, error) {
	r, ok := transitions[ev]
	if !ok {
		return inv, fmt.Errorf("%w: %q", ErrUnknownEvent, ev)
	}
	if err := r.check(&inv, ev, p); err != nil {
		return inv, err
	}

	out := inv
	if r.to != 0 {
		out.Status = r.to
	}
	if r.apply != nil {
		r.apply(&out, p)
	}
	return out, nil
}

// CanEnter checks the preconditions of ev that depend only on the invoice itself:
// its status, number and tax status. Guards on caller input are not evaluated.
func CanEnter(inv models.Invoice, ev Event) error {
	r, ok := transitions[ev]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev)
	}
	if r.precheck != nil {
		if err := r.precheck(&inv, Params{}); err != nil {
			return err
		}
	}
	if !r.allows(inv.Status) {
		return guardErr(ev, &inv, "not allowed from this status")
	}
	return nil
}

// AvailableEvents lists the events CanEnter accepts for inv.
func AvailableEvents(inv models.Invoice) []Event {
	order := []Event{EventSubmit, EventApprove, EventRequestSign, EventSign, EventIssue, EventCancel, EventResend}
	var out []Event
	for _, ev := range order {
		if CanEnter(inv, ev) == nil {
			out = append(out, ev)
		}
	}
	if inv.Status == models.StatusIssued {
		out = append(out, EventDerive)
	}
	return out
}

func (r rule) check(inv *models.Invoice, ev Event, p Params) error {
	if err := CanEnter(*inv, ev); err != nil {
		return err
	}
	if r.guard != nil {
		return r.guard(inv, p)
	}
	return nil
}

func (r rule) allows(s models.InvoiceStatus) bool {
	for _, f := range r.from {
		if f == s {
			return true
		}
	}
	return false
}

func requireNoNumber(inv *models.Invoice, _ Params) error {
	if inv.HasInvoiceNumber() {
		return guardErr(EventSign, inv, fmt.Sprintf("invoice already numbered %s", models.FormatInvoiceNumber(inv.InvoiceNumber)))
	}
	return nil
}

func requireNumber(inv *models.Invoice, _ Params) error {
	if !inv.HasInvoiceNumber() {
		return guardErr(EventIssue, inv, "invoice has not been signed and numbered")
	}
	return nil
}

func recordTaxResult(inv *models.Invoice, p Params) {
	inv.TaxCode = p.TaxCode
	inv.TaxStatus = p.TaxStatus
	if inv.TaxStatus == models.TaxNotSent {
		inv.TaxStatus = models.TaxApproved
	}
}

func guardErr(ev Event, inv *models.Invoice, reason string) *GuardError {
	return &GuardError{Event: ev, From: inv.Status, Reason: reason}
}
