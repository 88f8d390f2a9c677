package models

// InvoiceStatus is the internal workflow status of an invoice.
type InvoiceStatus int

const (
	StatusDraft              InvoiceStatus = 1
	StatusIssued             InvoiceStatus = 2
	StatusPendingApproval    InvoiceStatus = 6
	StatusPendingSign        InvoiceStatus = 7
	StatusSignedPendingIssue InvoiceStatus = 8
	StatusApproved           InvoiceStatus = 9
	StatusSigned             InvoiceStatus = 10
)

const unknownLabel = "Không xác định"

var statusLabels = map[InvoiceStatus]string{
	StatusDraft:              "Nháp",
	StatusIssued:             "Đã phát hành",
	StatusPendingApproval:    "Chờ duyệt",
	StatusPendingSign:        "Chờ ký",
	StatusSignedPendingIssue: "Đã ký - chờ phát hành",
	StatusApproved:           "Đã duyệt",
	StatusSigned:             "Đã ký",
}

// AllStatuses lists the statuses in workflow order.
func AllStatuses() []InvoiceStatus {
	return []InvoiceStatus{
		StatusDraft,
		StatusPendingApproval,
		StatusApproved,
		StatusPendingSign,
		StatusSignedPendingIssue,
		StatusSigned,
		StatusIssued,
	}
}

func (s InvoiceStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the Vietnamese display label for the status.
func (s InvoiceStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return unknownLabel
}

// IsSignedState reports whether the status lies after a successful signature.
func (s InvoiceStatus) IsSignedState() bool {
	return s == StatusSignedPendingIssue || s == StatusSigned
}

// InvoiceType distinguishes an original invoice from the documents derived from it.
type InvoiceType int

const (
	TypeOriginal     InvoiceType = 1
	TypeAdjustment   InvoiceType = 2
	TypeReplacement  InvoiceType = 3
	TypeCancellation InvoiceType = 4
	TypeExplanation  InvoiceType = 5
)

var typeLabels = map[InvoiceType]string{
	TypeOriginal:     "Hóa đơn gốc",
	TypeAdjustment:   "Hóa đơn điều chỉnh",
	TypeReplacement:  "Hóa đơn thay thế",
	TypeCancellation: "Hóa đơn hủy",
	TypeExplanation:  "Hóa đơn giải trình",
}

func (t InvoiceType) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

func (t InvoiceType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return unknownLabel
}

// CustomerType selects the tax code rules applied to the buyer.
type CustomerType int

const (
	CustomerIndividual CustomerType = 1
	CustomerBusiness   CustomerType = 2
)

func (c CustomerType) Valid() bool {
	return c == CustomerIndividual || c == CustomerBusiness
}
