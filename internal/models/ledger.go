package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry kinds. Amount is signed: credits positive, debits negative.
const (
	LedgerDeposit    = "deposit"
	LedgerWithdrawal = "withdrawal"
	LedgerBetStake   = "bet_stake"
	LedgerBetPayout  = "bet_payout"
)

// LedgerEntry records one wallet balance movement. It is written in the same
// database transaction as the balance update it describes.
type LedgerEntry struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Kind          string          `gorm:"size:20;not null;index" json:"kind"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_after"`
	ReferenceType string          `gorm:"size:20" json:"reference_type"`
	ReferenceID   string          `gorm:"size:64;index" json:"reference_id"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "wallet_ledger"
}
