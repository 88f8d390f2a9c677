package models

// InvoiceSequence holds the last invoice number handed out for a serial.
type InvoiceSequence struct {
	Serial     string `gorm:"primaryKey;size:20"`
	LastNumber int64  `gorm:"not null;default:0"`
}

// TableName overrides the table name
func (InvoiceSequence) TableName() string {
	return "invoice_sequences"
}

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Customer{},
		&Product{},
		&Invoice{},
		&LineItem{},
		&InvoiceSequence{},
	}
}
