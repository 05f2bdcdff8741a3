package services

import (
	"errors"
)

// Kind classifies a domain error for transport mapping
type Kind string

const (
	KindInvalidAmount              Kind = "invalid_amount"
	KindInsufficientBalance        Kind = "insufficient_balance"
	KindNotFound                   Kind = "not_found"
	KindBettingClosed              Kind = "betting_closed"
	KindQuestionClosed             Kind = "question_closed"
	KindInvalidOption              Kind = "invalid_option"
	KindAlreadySettled             Kind = "already_settled"
	KindAlreadyProcessed           Kind = "already_processed"
	KindUnauthorized               Kind = "unauthorized"
	KindForbidden                  Kind = "forbidden"
	KindKYCRequired                Kind = "kyc_required"
	KindDuplicatePendingWithdrawal Kind = "duplicate_pending_withdrawal"
	KindInvalidInput               Kind = "invalid_input"
	KindNotEditable                Kind = "not_editable"
	KindConflict                   Kind = "conflict"
	KindQuestionNotSettled         Kind = "question_not_settled"
	KindInternal                   Kind = "internal"
)

// Error is a domain error with a stable kind
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrInvalidAmount              = newError(KindInvalidAmount, "invalid amount")
	ErrInsufficientBalance        = newError(KindInsufficientBalance, "insufficient balance")
	ErrBettingClosed              = newError(KindBettingClosed, "betting is closed for this match")
	ErrQuestionClosed             = newError(KindQuestionClosed, "question is not open for betting")
	ErrInvalidOption              = newError(KindInvalidOption, "invalid option")
	ErrAlreadySettled             = newError(KindAlreadySettled, "question already settled")
	ErrAlreadyProcessed           = newError(KindAlreadyProcessed, "transaction already processed")
	ErrUnauthorized               = newError(KindUnauthorized, "unauthorized")
	ErrForbidden                  = newError(KindForbidden, "admin access required")
	ErrKYCRequired                = newError(KindKYCRequired, "verified KYC with a verified payout method is required")
	ErrDuplicatePendingWithdrawal = newError(KindDuplicatePendingWithdrawal, "a withdrawal request is already pending")
	ErrQuestionNotSettled         = newError(KindQuestionNotSettled, "question is not settled")

	ErrUserNotFound        = newError(KindNotFound, "user not found")
	ErrMatchNotFound       = newError(KindNotFound, "match not found")
	ErrQuestionNotFound    = newError(KindNotFound, "question not found")
	ErrOptionNotFound      = newError(KindNotFound, "option not found")
	ErrTransactionNotFound = newError(KindNotFound, "transaction not found")

	ErrInvalidInput     = newError(KindInvalidInput, "invalid input")
	ErrInvalidOdds      = newError(KindInvalidInput, "odds must be at least 1.00")
	ErrInvalidStartTime = newError(KindInvalidInput, "start time must be in the future")
	ErrNotEditable      = newError(KindNotEditable, "match can no longer be edited")
	ErrMatchCompleted   = newError(KindConflict, "match already completed")
	ErrMatchHasBets     = newError(KindConflict, "match has bets")
	ErrEmailTaken       = newError(KindConflict, "email already registered")
	ErrPhoneTaken       = newError(KindConflict, "phone already registered")
	ErrInvalidLogin     = newError(KindUnauthorized, "invalid email or password")
)

// KindOf returns the kind of the first domain error in err's chain
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
