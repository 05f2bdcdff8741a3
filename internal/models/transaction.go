package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypeWithdraw = "withdraw"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusRejected  = "rejected"
)

const (
	MethodUPI  = "UPI"
	MethodBank = "BANK"
)

// Transaction is a deposit or withdrawal request awaiting or past admin review.
// Balance effects happen only on approval.
type Transaction struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uint              `gorm:"not null;index" json:"user_id"`
	User              *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type              string            `gorm:"size:20;not null;index" json:"type"`
	Amount            decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"amount"`
	Method            string            `gorm:"size:10;not null" json:"method"`
	Status            string            `gorm:"size:20;not null;default:pending;index" json:"status"`
	UTRNumber         string            `gorm:"size:64" json:"utr_number,omitempty"`
	ReferenceNumber   string            `gorm:"size:64" json:"reference_number,omitempty"`
	AdminUPIID        string            `gorm:"size:100" json:"admin_upi_id,omitempty"`
	WithdrawalDetails WithdrawalDetails `gorm:"embedded;embeddedPrefix:wd_" json:"withdrawal_details"`
	ProcessedBy       *uint             `json:"processed_by,omitempty"`
	ProcessedAt       *time.Time        `json:"processed_at,omitempty"`
	RejectionReason   string            `gorm:"type:text" json:"rejection_reason,omitempty"`
	Notes             string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt         time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// WithdrawalDetails is the payout destination of a withdrawal
type WithdrawalDetails struct {
	AccountHolderName string `gorm:"size:255" json:"account_holder_name,omitempty"`
	BankAccountNumber string `gorm:"size:34" json:"bank_account_number,omitempty"`
	IFSCCode          string `gorm:"column:ifsc_code;size:11" json:"ifsc_code,omitempty"`
	BankName          string `gorm:"size:255" json:"bank_name,omitempty"`
	UPIID             string `gorm:"column:upi_id;size:100" json:"upi_id,omitempty"`
}
