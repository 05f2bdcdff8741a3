package events

import (
	"context"
	"time"
)

// BetPlaced is emitted after a bet and its stake debit commit
type BetPlaced struct {
	BetID      string    `json:"bet_id"`
	UserID     uint      `json:"user_id"`
	MatchID    uint      `json:"match_id"`
	QuestionID uint      `json:"question_id"`
	OptionID   uint      `json:"option_id"`
	Selection  string    `json:"selection"`
	Amount     string    `json:"amount"`
	Odds       string    `json:"odds"`
	Ts         time.Time `json:"ts"`
}

// QuestionSettled is emitted once per settlement run
type QuestionSettled struct {
	MatchID       uint      `json:"match_id"`
	QuestionID    uint      `json:"question_id"`
	CorrectOption int       `json:"correct_option"`
	WinningText   string    `json:"winning_text"`
	TotalBets     int       `json:"total_bets"`
	Winners       int       `json:"winners"`
	Losers        int       `json:"losers"`
	Unresolved    int       `json:"unresolved"`
	TotalPayout   string    `json:"total_payout"`
	SettledBy     uint      `json:"settled_by"`
	Resumed       bool      `json:"resumed"`
	Ts            time.Time `json:"ts"`
}

// TransactionResolved is emitted when an admin approves or rejects a
// deposit or withdrawal
type TransactionResolved struct {
	TransactionID string    `json:"transaction_id"`
	UserID        uint      `json:"user_id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Amount        string    `json:"amount"`
	ProcessedBy   uint      `json:"processed_by"`
	Ts            time.Time `json:"ts"`
}

// Publisher delivers domain events. Publishing happens after commit and a
// failure never undoes the committed change.
type Publisher interface {
	PublishBetPlaced(ctx context.Context, e BetPlaced) error
	PublishQuestionSettled(ctx context.Context, e QuestionSettled) error
	PublishTransactionResolved(ctx context.Context, e TransactionResolved) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishBetPlaced(context.Context, BetPlaced) error { return nil }

func (NopPublisher) PublishQuestionSettled(context.Context, QuestionSettled) error { return nil }

func (NopPublisher) PublishTransactionResolved(context.Context, TransactionResolved) error {
	return nil
}
