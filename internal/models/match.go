package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Match lifecycle. A match never moves backward; completed is sticky.
const (
	MatchStatusUpcoming  = "upcoming"
	MatchStatusLive      = "live"
	MatchStatusCompleted = "completed"
)

// Question lifecycle
const (
	QuestionStatusOpen    = "open"
	QuestionStatusClosed  = "closed"
	QuestionStatusSettled = "settled"
)

// Match is a cricket fixture that owns its betting questions
type Match struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Team1       string     `gorm:"size:100;not null" json:"team1"`
	Team2       string     `gorm:"size:100;not null" json:"team2"`
	StartTime   time.Time  `gorm:"not null;index" json:"start_time"`
	Status      string     `gorm:"size:20;not null;default:upcoming;index" json:"status"`
	Questions   []Question `gorm:"foreignKey:MatchID" json:"questions"`
	CreatedBy   uint       `json:"created_by"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Match) TableName() string {
	return "matches"
}

// Question is a multiple-choice market on a match
type Question struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	MatchID       uint       `gorm:"not null;index" json:"match_id"`
	Position      int        `gorm:"not null;default:0" json:"position"`
	Text          string     `gorm:"type:text;not null" json:"question"`
	Options       []Option   `gorm:"foreignKey:QuestionID" json:"options"`
	Status        string     `gorm:"size:20;not null;default:open;index" json:"status"`
	CorrectOption *int       `json:"correct_option,omitempty"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
	SettledBy     *uint      `json:"settled_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// Option is one selectable answer. Text and position are fixed at creation;
// only the odds may be edited, and bets keep the odds they were placed at.
type Option struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	QuestionID uint            `gorm:"not null;index" json:"question_id"`
	Position   int             `gorm:"not null" json:"position"`
	Text       string          `gorm:"size:255;not null" json:"text"`
	Odds       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"odds"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Option) TableName() string {
	return "question_options"
}
