package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BetStatusPending = "pending"
	BetStatusWon     = "won"
	BetStatusLost    = "lost"
)

// Bet is a wager on one option of a question. Question text, option text
// and odds are copied at placement so later edits never change the terms.
type Bet struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	MatchID        uint            `gorm:"not null;index" json:"match_id"`
	QuestionID     uint            `gorm:"not null;index:idx_bets_question_status" json:"question_id"`
	OptionID       uint            `gorm:"not null" json:"option_id"`
	QuestionText   string          `gorm:"type:text;not null" json:"question_text"`
	SelectedOption string          `gorm:"size:255;not null" json:"selected_option"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Odds           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"odds"`
	PotentialWin   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"potential_win"`
	Status         string          `gorm:"size:20;not null;default:pending;index:idx_bets_question_status" json:"status"`
	Payout         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"payout"`
	SettledAt      *time.Time      `json:"settled_at,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Bet) TableName() string {
	return "bets"
}

func (b *Bet) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
