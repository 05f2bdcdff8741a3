package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jyothika2406/cricket-app/internal/config"
	"github.com/Jyothika2406/cricket-app/internal/events"
	"github.com/Jyothika2406/cricket-app/internal/metrics"
	"github.com/Jyothika2406/cricket-app/internal/models"
	"github.com/Jyothika2406/cricket-app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

const defaultRejectionReason = "Rejected by admin"

// TransactionService runs the deposit and withdrawal approval workflow.
// Requests never touch the balance; only an admin approval does.
type TransactionService struct {
	repo     *repository.Repository
	admin    *AdminService
	settings *SettingsService
	limits   config.BettingConfig
	events   events.Publisher
	log      *zap.Logger
}

func NewTransactionService(repo *repository.Repository, admin *AdminService, settings *SettingsService,
	limits config.BettingConfig, publisher events.Publisher, log *zap.Logger) *TransactionService {
	return &TransactionService{
		repo:     repo,
		admin:    admin,
		settings: settings,
		limits:   limits,
		events:   publisher,
		log:      log.Named("transactions"),
	}
}

type DepositInput struct {
	UserID          uint            `json:"-"`
	Amount          decimal.Decimal `json:"amount"`
	UTRNumber       string          `json:"utr_number" binding:"omitempty,max=64"`
	ReferenceNumber string          `json:"reference_number" binding:"omitempty,max=64"`
}

type WithdrawalInput struct {
	UserID            uint            `json:"-"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method" binding:"omitempty,oneof=bank upi BANK UPI"`
	AccountHolderName string          `json:"account_holder_name"`
	BankAccountNumber string          `json:"bank_account_number"`
	IFSCCode          string          `json:"ifsc_code" binding:"omitempty,ifsc"`
	BankName          string          `json:"bank_name"`
	UPIID             string          `json:"upi_id" binding:"omitempty,upi"`
}

type ResolveInput struct {
	AdminID       uint      `json:"-"`
	TransactionID uuid.UUID `json:"-"`
	Action        string    `json:"action" binding:"required,oneof=approve reject"`
	Reason        string    `json:"reason"`
	Notes         string    `json:"notes"`
}

type TransactionFilter struct {
	Type   string
	Status string
	UserID uint
	Limit  int
}

// RequestDeposit records a pending deposit the user claims to have paid
func (s *TransactionService) RequestDeposit(ctx context.Context, in DepositInput) (*models.Transaction, error) {
	if !in.Amount.IsPositive() || in.Amount.LessThan(s.limits.MinDeposit) {
		return nil, fmt.Errorf("%w: minimum deposit is %s", ErrInvalidAmount, s.limits.MinDeposit)
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
	}

	if _, err := s.repo.GetUser(ctx, in.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	adminUPI, err := s.settings.DepositUPI(ctx)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		UserID:          in.UserID,
		Type:            models.TransactionTypeDeposit,
		Amount:          in.Amount,
		Method:          models.MethodUPI,
		Status:          models.TransactionStatusPending,
		UTRNumber:       strings.TrimSpace(in.UTRNumber),
		ReferenceNumber: strings.TrimSpace(in.ReferenceNumber),
		AdminUPIID:      adminUPI,
		Notes:           fmt.Sprintf("Deposit request of %s via UPI", in.Amount.StringFixed(2)),
	}
	if err := s.repo.DB().WithContext(ctx).Create(txn).Error; err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	s.log.Info("deposit requested", zap.String("transaction_id", txn.ID.String()), zap.Uint("user_id", in.UserID))
	return txn, nil
}

// RequestWithdrawal records a pending withdrawal. The user row stays locked
// across the pending-withdrawal check and the insert, so two concurrent
// requests cannot both pass.
func (s *TransactionService) RequestWithdrawal(ctx context.Context, in WithdrawalInput) (*models.Transaction, error) {
	if !in.Amount.IsPositive() || in.Amount.LessThan(s.limits.MinWithdrawal) {
		return nil, fmt.Errorf("%w: minimum withdrawal is %s", ErrInvalidAmount, s.limits.MinWithdrawal)
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
	}

	var txn *models.Transaction
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		user, err := tx.GetUserForUpdate(ctx, in.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		if !IsWithdrawalEligible(user) {
			return ErrKYCRequired
		}
		if in.Amount.GreaterThan(user.WalletBalance) {
			return ErrInsufficientBalance
		}

		var pending int64
		if err := tx.DB().WithContext(ctx).
			Model(&models.Transaction{}).
			Where("user_id = ? AND type = ? AND status = ?",
				in.UserID, models.TransactionTypeWithdraw, models.TransactionStatusPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicatePendingWithdrawal
		}

		method, details, err := withdrawalDestination(user, in)
		if err != nil {
			return err
		}

		txn = &models.Transaction{
			UserID:            in.UserID,
			Type:              models.TransactionTypeWithdraw,
			Amount:            in.Amount,
			Method:            method,
			Status:            models.TransactionStatusPending,
			WithdrawalDetails: details,
			Notes:             fmt.Sprintf("Withdrawal request of %s via %s", in.Amount.StringFixed(2), method),
		}
		return tx.DB().WithContext(ctx).Create(txn).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal requested", zap.String("transaction_id", txn.ID.String()), zap.Uint("user_id", in.UserID))
	return txn, nil
}

// withdrawalDestination picks the payout target from the request, falling
// back to the user's verified KYC details
func withdrawalDestination(user *models.User, in WithdrawalInput) (string, models.WithdrawalDetails, error) {
	kyc := user.KYC
	holder := strings.TrimSpace(in.AccountHolderName)
	if holder == "" {
		holder = kyc.FullName
	}

	method := strings.ToUpper(strings.TrimSpace(in.Method))
	if method == "" {
		switch {
		case in.UPIID != "":
			method = models.MethodUPI
		case in.BankAccountNumber != "":
			method = models.MethodBank
		case kyc.UPIVerified:
			method = models.MethodUPI
		default:
			method = models.MethodBank
		}
	}

	switch method {
	case models.MethodUPI:
		upi := strings.ToLower(strings.TrimSpace(in.UPIID))
		if upi == "" && kyc.UPIVerified {
			upi = kyc.UPIID
		}
		if upi == "" {
			return "", models.WithdrawalDetails{}, fmt.Errorf("%w: UPI id required", ErrInvalidInput)
		}
		return method, models.WithdrawalDetails{AccountHolderName: holder, UPIID: upi}, nil
	case models.MethodBank:
		details := models.WithdrawalDetails{
			AccountHolderName: holder,
			BankAccountNumber: strings.TrimSpace(in.BankAccountNumber),
			IFSCCode:          strings.ToUpper(strings.TrimSpace(in.IFSCCode)),
			BankName:          strings.TrimSpace(in.BankName),
		}
		if details.BankAccountNumber == "" && kyc.BankVerified {
			details.BankAccountNumber = kyc.BankAccountNumber
			details.IFSCCode = kyc.IFSCCode
			details.BankName = kyc.BankName
		}
		if details.BankAccountNumber == "" || details.IFSCCode == "" {
			return "", models.WithdrawalDetails{}, fmt.Errorf("%w: bank account and IFSC required", ErrInvalidInput)
		}
		return method, details, nil
	default:
		return "", models.WithdrawalDetails{}, fmt.Errorf("%w: unknown method %q", ErrInvalidInput, in.Method)
	}
}

// ResolveTransaction approves or rejects a pending request. Approval applies
// the balance effect in the same transaction as the status change; an
// approval that would overdraw fails and leaves the request pending.
func (s *TransactionService) ResolveTransaction(ctx context.Context, in ResolveInput) (*models.Transaction, error) {
	if _, err := s.admin.RequireAdmin(ctx, in.AdminID); err != nil {
		return nil, err
	}
	if in.Action != ActionApprove && in.Action != ActionReject {
		return nil, fmt.Errorf("%w: action must be approve or reject", ErrInvalidInput)
	}

	var txn models.Transaction
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		db := tx.DB().WithContext(ctx)
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", in.TransactionID).
			First(&txn).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		if err != nil {
			return err
		}
		if txn.Status != models.TransactionStatusPending {
			return ErrAlreadyProcessed
		}

		now := s.now()
		updates := map[string]interface{}{
			"processed_by": in.AdminID,
			"processed_at": now,
		}
		if in.Notes != "" {
			updates["notes"] = in.Notes
		}
		if in.Action == ActionApprove {
			updates["status"] = models.TransactionStatusCompleted
		} else {
			reason := strings.TrimSpace(in.Reason)
			if reason == "" {
				reason = defaultRejectionReason
			}
			updates["status"] = models.TransactionStatusRejected
			updates["rejection_reason"] = reason
		}

		result := db.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionStatusPending).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update transaction: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		if in.Action == ActionApprove {
			ref := repository.Ref{Type: "transaction", ID: txn.ID.String()}
			switch txn.Type {
			case models.TransactionTypeDeposit:
				if _, err := tx.Credit(ctx, txn.UserID, txn.Amount, models.LedgerDeposit, ref); err != nil {
					return err
				}
			case models.TransactionTypeWithdraw:
				if _, err := tx.Debit(ctx, txn.UserID, txn.Amount, models.LedgerWithdrawal, ref); err != nil {
					if errors.Is(err, repository.ErrInsufficientFunds) {
						return ErrInsufficientBalance
					}
					return err
				}
			}
		}

		return db.First(&txn, "id = ?", txn.ID).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.TransactionsResolved.WithLabelValues(txn.Type, txn.Status).Inc()
	s.admin.LogAdminAction(ctx, in.AdminID, strings.ToUpper(in.Action)+"_"+strings.ToUpper(txn.Type),
		"TRANSACTION", txn.ID.String(), map[string]interface{}{
			"user_id": txn.UserID,
			"amount":  txn.Amount.String(),
			"reason":  txn.RejectionReason,
		})
	if err := s.events.PublishTransactionResolved(ctx, events.TransactionResolved{
		TransactionID: txn.ID.String(),
		UserID:        txn.UserID,
		Type:          txn.Type,
		Status:        txn.Status,
		Amount:        txn.Amount.String(),
		ProcessedBy:   in.AdminID,
		Ts:            s.now(),
	}); err != nil {
		s.log.Warn("failed to publish transaction resolved", zap.String("transaction_id", txn.ID.String()), zap.Error(err))
	}

	s.log.Info("transaction resolved",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("type", txn.Type),
		zap.String("status", txn.Status),
		zap.Uint("admin_id", in.AdminID),
	)
	return &txn, nil
}

// ListTransactions returns requests for the admin queue, newest first
func (s *TransactionService) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := s.repo.DB().WithContext(ctx).Preload("User")
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var txns []models.Transaction
	if err := query.Order("created_at DESC").Limit(limit).Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// GetUserTransactions returns one user's requests, newest first
func (s *TransactionService) GetUserTransactions(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var txns []models.Transaction
	if err := s.repo.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to get user transactions: %w", err)
	}
	return txns, nil
}

func (s *TransactionService) now() time.Time {
	return time.Now().UTC()
}
