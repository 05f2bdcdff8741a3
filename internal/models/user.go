package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// KYC review states
const (
	KYCStatusNone     = "none"
	KYCStatusPending  = "pending"
	KYCStatusVerified = "verified"
	KYCStatusRejected = "rejected"
)

// User represents a user in the system. WalletBalance is only ever changed
// through the ledger store's guarded credit and debit statements.
type User struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Email         string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone         *string         `gorm:"size:20;uniqueIndex" json:"phone,omitempty"`
	PasswordHash  string          `gorm:"size:255;not null" json:"-"`
	WalletBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"wallet_balance"`
	Role          string          `gorm:"size:20;not null;default:user;index" json:"role"`
	KYCStatus     string          `gorm:"size:20;not null;default:none;index" json:"kyc_status"`
	KYC           KYCData         `gorm:"embedded;embeddedPrefix:kyc_" json:"kyc_data"`
	ReferralCode  string          `gorm:"size:20;uniqueIndex" json:"referral_code"`
	ReferredBy    *uint           `gorm:"index" json:"referred_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the stored role is admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// KYCData holds the identity and payout destination a user submitted for review
type KYCData struct {
	FullName          string     `gorm:"size:255" json:"full_name"`
	PANNumber         string     `gorm:"column:pan_number;size:10" json:"pan_number"`
	AadhaarNumber     string     `gorm:"size:12" json:"aadhaar_number"`
	BankAccountNumber string     `gorm:"size:34" json:"bank_account_number,omitempty"`
	IFSCCode          string     `gorm:"column:ifsc_code;size:11" json:"ifsc_code,omitempty"`
	BankName          string     `gorm:"size:255" json:"bank_name,omitempty"`
	UPIID             string     `gorm:"column:upi_id;size:100" json:"upi_id,omitempty"`
	BankVerified      bool       `gorm:"default:false" json:"bank_verified"`
	UPIVerified       bool       `gorm:"default:false" json:"upi_verified"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	RejectionReason   string     `gorm:"type:text" json:"rejection_reason,omitempty"`
}

// HasBank reports whether bank details were submitted
func (k KYCData) HasBank() bool {
	return k.BankAccountNumber != "" && k.IFSCCode != ""
}

// HasUPI reports whether a UPI id was submitted
func (k KYCData) HasUPI() bool {
	return k.UPIID != ""
}
