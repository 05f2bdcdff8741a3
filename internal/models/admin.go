package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source %T", value)
	}
}

// AdminLog records admin actions for audit trail
type AdminLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AdminID      uint      `gorm:"not null;index" json:"admin_id"`
	Admin        *User     `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action       string    `gorm:"size:100;not null" json:"action"`
	ResourceType string    `gorm:"size:50" json:"resource_type"`
	ResourceID   string    `gorm:"size:64" json:"resource_id"`
	Details      JSONB     `gorm:"type:jsonb" json:"details"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}

// UPIAccount is a UPI id users pay deposits into
type UPIAccount struct {
	UPIID    string `json:"upi_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// UPIAccounts is stored as a JSON array
type UPIAccounts []UPIAccount

func (u UPIAccounts) Value() (driver.Value, error) {
	if u == nil {
		return "[]", nil
	}
	b, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (u *UPIAccounts) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*u = nil
		return nil
	case []byte:
		return json.Unmarshal(v, u)
	case string:
		return json.Unmarshal([]byte(v), u)
	default:
		return fmt.Errorf("unsupported UPIAccounts source %T", value)
	}
}

// Active returns the first active UPI id
func (u UPIAccounts) Active() (UPIAccount, bool) {
	for _, acc := range u {
		if acc.IsActive {
			return acc, true
		}
	}
	return UPIAccount{}, false
}

// AdminSettings is a single-row table of admin-tunable platform settings
type AdminSettings struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AdminUPIIDs  UPIAccounts     `gorm:"type:text" json:"admin_upi_ids"`
	MinBetAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"min_bet_amount"`
	MaxBetAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"max_bet_amount"`
	UpdatedBy    *uint           `json:"updated_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (AdminSettings) TableName() string {
	return "admin_settings"
}

// PlatformStats is the admin dashboard summary. It is computed on request.
type PlatformStats struct {
	TotalUsers          int64           `json:"total_users"`
	PendingKYC          int64           `json:"pending_kyc"`
	TotalMatches        int64           `json:"total_matches"`
	LiveMatches         int64           `json:"live_matches"`
	TotalBets           int64           `json:"total_bets"`
	PendingBets         int64           `json:"pending_bets"`
	PendingTransactions int64           `json:"pending_transactions"`
	TotalDeposits       decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals    decimal.Decimal `json:"total_withdrawals"`
	TotalWalletBalance  decimal.Decimal `json:"total_wallet_balance"`
}
