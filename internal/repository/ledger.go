package repository

import (
	"context"
	"fmt"

	"github.com/Jyothika2406/cricket-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ref identifies the bet or transaction a ledger movement belongs to
type Ref struct {
	Type string
	ID   string
}

// Credit adds amount to the user's balance in one statement and records the
// movement. Call it on a transaction-bound repository.
func (r *Repository) Credit(ctx context.Context, userID uint, amount decimal.Decimal, kind string, ref Ref) (*models.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("credit amount must be positive, got %s", amount)
	}

	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to credit user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.record(ctx, userID, amount, kind, ref)
}

// Debit subtracts amount only when the balance covers it. The check and the
// subtraction are the same statement, so concurrent debits cannot overdraw.
func (r *Repository) Debit(ctx context.Context, userID uint, amount decimal.Decimal, kind string, ref Ref) (*models.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("debit amount must be positive, got %s", amount)
	}

	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND wallet_balance >= ?", userID, amount).
		Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to debit user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetUser(ctx, userID); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientFunds
	}

	return r.record(ctx, userID, amount.Neg(), kind, ref)
}

func (r *Repository) record(ctx context.Context, userID uint, signed decimal.Decimal, kind string, ref Ref) (*models.LedgerEntry, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Select("id", "wallet_balance").
		First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	entry := &models.LedgerEntry{
		UserID:        userID,
		Kind:          kind,
		Amount:        signed,
		BalanceAfter:  user.WalletBalance,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to write ledger entry: %w", err)
	}
	return entry, nil
}

// LedgerEntries returns a user's movements, newest first
func (r *Repository) LedgerEntries(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

// LedgerSum returns the sum of a user's signed movements, optionally
// restricted to the given kinds.
func (r *Repository) LedgerSum(ctx context.Context, userID uint, kinds ...string) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_id = ?", userID)
	if len(kinds) > 0 {
		query = query.Where("kind IN ?", kinds)
	}

	var sum decimal.NullDecimal
	if err := query.Select("SUM(amount)").Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
