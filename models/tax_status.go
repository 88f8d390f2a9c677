package models

// TaxStatus is the tax authority's verdict on the most recent submission.
// Codes 10-21 are the TB01-TB12 technical notices, 30-33 the KQ01-KQ04 results.
type TaxStatus int

const (
	TaxNotSent    TaxStatus = 0
	TaxPending    TaxStatus = 1
	TaxReceived   TaxStatus = 2
	TaxRejected   TaxStatus = 3
	TaxApproved   TaxStatus = 4
	TaxFailed     TaxStatus = 5
	TaxProcessing TaxStatus = 6
	TaxNotFound   TaxStatus = 7

	TaxTB01 TaxStatus = 10
	TaxTB02 TaxStatus = 11
	TaxTB03 TaxStatus = 12
	TaxTB04 TaxStatus = 13
	TaxTB05 TaxStatus = 14
	TaxTB06 TaxStatus = 15
	TaxTB07 TaxStatus = 16
	TaxTB08 TaxStatus = 17
	TaxTB09 TaxStatus = 18
	TaxTB10 TaxStatus = 19
	TaxTB11 TaxStatus = 20
	TaxTB12 TaxStatus = 21

	TaxKQ01 TaxStatus = 30
	TaxKQ02 TaxStatus = 31
	TaxKQ03 TaxStatus = 32
	TaxKQ04 TaxStatus = 33
)

var taxStatusLabels = map[TaxStatus]string{
	TaxNotSent:    "Chưa gửi CQT",
	TaxPending:    "Chờ CQT phản hồi",
	TaxReceived:   "CQT đã tiếp nhận",
	TaxRejected:   "CQT từ chối",
	TaxApproved:   "CQT đã cấp mã",
	TaxFailed:     "Gửi CQT lỗi",
	TaxProcessing: "CQT đang xử lý",
	TaxNotFound:   "Không tìm thấy trên CQT",
	TaxTB01:       "TB01 - Tiếp nhận hợp lệ",
	TaxTB02:       "TB02 - Sai định dạng",
	TaxTB03:       "TB03 - Sai chữ ký số",
	TaxTB04:       "TB04 - Sai MST người bán",
	TaxTB05:       "TB05 - Thiếu thông tin bắt buộc",
	TaxTB06:       "TB06 - Trùng hóa đơn",
	TaxTB07:       "TB07 - Sai ký hiệu",
	TaxTB08:       "TB08 - Sai số hóa đơn",
	TaxTB09:       "TB09 - Sai thời điểm lập",
	TaxTB10:       "TB10 - Chứng thư số không hợp lệ",
	TaxTB11:       "TB11 - Người bán ngừng sử dụng",
	TaxTB12:       "TB12 - Lỗi khác",
	TaxKQ01:       "KQ01 - Hợp lệ",
	TaxKQ02:       "KQ02 - Không hợp lệ",
	TaxKQ03:       "KQ03 - Đang xử lý",
	TaxKQ04:       "KQ04 - Chưa có kết quả",
}

func (s TaxStatus) Label() string {
	if l, ok := taxStatusLabels[s]; ok {
		return l
	}
	return unknownLabel
}

// IsError reports whether the tax authority refused the submission.
func (s TaxStatus) IsError() bool {
	switch {
	case s == TaxRejected, s == TaxFailed, s == TaxKQ02:
		return true
	case s >= TaxTB02 && s <= TaxTB12:
		return true
	}
	return false
}

func (s TaxStatus) IsSuccess() bool {
	return s == TaxApproved || s == TaxTB01 || s == TaxKQ01
}

// CanRetry reports whether a resend is allowed for the status.
func (s TaxStatus) CanRetry() bool {
	return s.IsError() || s == TaxNotFound || s == TaxKQ04
}

// AllTaxStatuses lists every known code in ascending order.
func AllTaxStatuses() []TaxStatus {
	out := []TaxStatus{TaxNotSent, TaxPending, TaxReceived, TaxRejected, TaxApproved, TaxFailed, TaxProcessing, TaxNotFound}
	for s := TaxTB01; s <= TaxTB12; s++ {
		out = append(out, s)
	}
	for s := TaxKQ01; s <= TaxKQ04; s++ {
		out = append(out, s)
	}
	return out
}
