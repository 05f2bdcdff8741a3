package services

import (
	"context"
	"errors"

	"github.com/Jyothika2406/cricket-app/internal/models"
	"github.com/Jyothika2406/cricket-app/internal/repository"

	"github.com/shopspring/decimal"
)

// UserService handles user-related reads
type UserService struct {
	repo *repository.Repository
}

// NewUserService creates a new UserService
func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// Wallet is the balance view returned to the owner
type Wallet struct {
	Balance        decimal.Decimal `json:"balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	TotalStaked    decimal.Decimal `json:"total_staked"`
	TotalWon       decimal.Decimal `json:"total_won"`
}

// GetProfile retrieves a user by ID
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// GetWallet returns the balance together with per-kind ledger totals
func (s *UserService) GetWallet(ctx context.Context, userID uint) (*Wallet, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	w := &Wallet{Balance: user.WalletBalance}
	for kind, dst := range map[string]*decimal.Decimal{
		models.LedgerDeposit:    &w.TotalDeposited,
		models.LedgerWithdrawal: &w.TotalWithdrawn,
		models.LedgerBetStake:   &w.TotalStaked,
		models.LedgerBetPayout:  &w.TotalWon,
	} {
		sum, err := s.repo.LedgerSum(ctx, userID, kind)
		if err != nil {
			return nil, err
		}
		*dst = sum.Abs()
	}
	return w, nil
}

// GetLedger returns the user's wallet movements, newest first
func (s *UserService) GetLedger(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, error) {
	return s.repo.LedgerEntries(ctx, userID, limit, offset)
}
