package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Invoice struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	InvoiceNumber string         `gorm:"uniqueIndex;not null" json:"invoice_number"`
	BookingID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"booking_id"`
	CustomerID    uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	FranchiseID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"franchise_id"`
	IssueDate     time.Time      `json:"issue_date"`
	DueDate       time.Time      `json:"due_date"`
	Subtotal      float64        `gorm:"default:0" json:"subtotal"`
	TaxRate       float64        `gorm:"default:0" json:"tax_rate"`
	TaxAmount     float64        `gorm:"default:0" json:"tax_amount"`
	TotalAmount   float64        `gorm:"default:0" json:"total_amount"`
	PaidAmount    float64        `gorm:"default:0" json:"paid_amount"`
	BalanceAmount float64        `gorm:"default:0" json:"balance_amount"`
	Status        string         `gorm:"default:draft" json:"status"` // draft, sent, paid
	PDFURL        string         `json:"pdf_url"`
	PDFGenerated  bool           `gorm:"default:false" json:"pdf_generated"`
	Notes         string         `json:"notes"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type FinancialTransaction struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TransactionDate     time.Time  `json:"transaction_date"`
	Amount              float64    `gorm:"not null" json:"amount"`
	Type                string     `gorm:"not null" json:"type"` // income, expense
	Subtype             string     `json:"subtype"`              // deposit_refund, settlement_charge
	Description         string     `json:"description"`
	ReferenceNumber     string     `gorm:"index" json:"reference_number"`
	BookingID           *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	InvoiceID           *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	SettlementReference string     `json:"settlement_reference"`
	PaymentMethodID     *uuid.UUID `gorm:"type:uuid" json:"payment_method_id,omitempty"`
	FranchiseID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"franchise_id"`
	CreatedBy           *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (t *FinancialTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type PaymentMethod struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (pm *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if pm.ID == uuid.Nil {
		pm.ID = uuid.New()
	}
	return nil
}

// AuditLog rows are written asynchronously by utils.AuditLogger; failures to
// record them never fail the operation being audited.
type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Table     string    `gorm:"column:table_name;index" json:"table_name"`
	RecordID  string    `gorm:"index" json:"record_id"`
	Action    string    `json:"action"` // create, update
	OldValues string    `json:"old_values"`
	NewValues string    `json:"new_values"`
	UserID    *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
