package services

import (
	"context"
	"errors"
	"fmt"

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

// BetService places bets against open questions
type BetService struct {
	repo     *repository.Repository
	market   *MarketService
	settings *SettingsService
	events   events.Publisher
	log      *zap.Logger
}

func NewBetService(repo *repository.Repository, market *MarketService, settings *SettingsService,
	publisher events.Publisher, log *zap.Logger) *BetService {
	return &BetService{
		repo:     repo,
		market:   market,
		settings: settings,
		events:   publisher,
		log:      log.Named("bets"),
	}
}

type PlaceBetInput struct {
	UserID         uint            `json:"-"`
	MatchID        uint            `json:"match_id" binding:"required"`
	QuestionID     uint            `json:"question_id" binding:"required"`
	SelectedOption *int            `json:"selected_option" binding:"required"`
	Amount         decimal.Decimal `json:"amount"`
}

// PlaceBet validates a wager and, in one database transaction, debits the
// stake and records a pending bet. Preconditions are checked in a fixed
// order and the first failure is returned.
func (s *BetService) PlaceBet(ctx context.Context, in PlaceBetInput) (*models.Bet, error) {
	bet, err := s.placeBet(ctx, in)
	if err != nil {
		metrics.BetsRejected.WithLabelValues(string(KindOf(err))).Inc()
		return nil, err
	}

	stake, _ := bet.Amount.Float64()
	metrics.BetsPlaced.Inc()
	metrics.BetStake.Add(stake)

	if err := s.events.PublishBetPlaced(ctx, events.BetPlaced{
		BetID:      bet.ID.String(),
		UserID:     bet.UserID,
		MatchID:    bet.MatchID,
		QuestionID: bet.QuestionID,
		OptionID:   bet.OptionID,
		Selection:  bet.SelectedOption,
		Amount:     bet.Amount.String(),
		Odds:       bet.Odds.String(),
		Ts:         bet.CreatedAt,
	}); err != nil {
		s.log.Warn("failed to publish bet placed", zap.String("bet_id", bet.ID.String()), zap.Error(err))
	}

	s.log.Info("bet placed",
		zap.String("bet_id", bet.ID.String()),
		zap.Uint("user_id", bet.UserID),
		zap.Uint("question_id", bet.QuestionID),
		zap.String("amount", bet.Amount.String()),
	)
	return bet, nil
}

func (s *BetService) placeBet(ctx context.Context, in PlaceBetInput) (*models.Bet, error) {
	if _, err := s.market.SweepStatuses(ctx); err != nil {
		return nil, err
	}

	minBet, maxBet, err := s.settings.BetLimits(ctx)
	if err != nil {
		return nil, err
	}
	if in.Amount.LessThan(minBet) {
		return nil, fmt.Errorf("%w: minimum bet is %s", ErrInvalidAmount, minBet)
	}
	if in.Amount.GreaterThan(maxBet) {
		return nil, fmt.Errorf("%w: maximum bet is %s", ErrInvalidAmount, maxBet)
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
	}

	user, err := s.repo.GetUser(ctx, in.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if in.Amount.GreaterThan(user.WalletBalance) {
		return nil, ErrInsufficientBalance
	}

	db := s.repo.DB()
	match, err := s.market.loadMatch(ctx, db, in.MatchID)
	if err != nil {
		return nil, err
	}
	if !IsBettingAllowed(match, s.market.Now()) {
		return nil, ErrBettingClosed
	}

	question, err := s.market.loadQuestion(ctx, db, in.MatchID, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if question.Status != models.QuestionStatusOpen {
		return nil, ErrQuestionClosed
	}
	if in.SelectedOption == nil || *in.SelectedOption < 0 || *in.SelectedOption >= len(question.Options) {
		return nil, ErrInvalidOption
	}
	option := question.Options[*in.SelectedOption]

	bet := &models.Bet{
		ID:             uuid.New(),
		UserID:         in.UserID,
		MatchID:        in.MatchID,
		QuestionID:     in.QuestionID,
		OptionID:       option.ID,
		QuestionText:   question.Text,
		SelectedOption: option.Text,
		Amount:         in.Amount,
		Odds:           option.Odds,
		PotentialWin:   in.Amount.Mul(option.Odds).Round(2),
		Status:         models.BetStatusPending,
		Payout:         decimal.Zero,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// the shared lock holds off a concurrent settlement of this question
		// until the bet is committed and visible to it
		var status string
		err := tx.DB().WithContext(ctx).
			Model(&models.Question{}).
			Clauses(clause.Locking{Strength: "SHARE"}).
			Where("id = ? AND match_id = ?", in.QuestionID, in.MatchID).
			Select("status").
			Row().Scan(&status)
		if err != nil {
			return fmt.Errorf("failed to lock question: %w", err)
		}
		if status != models.QuestionStatusOpen {
			return ErrQuestionClosed
		}

		if _, err := tx.Debit(ctx, in.UserID, in.Amount, models.LedgerBetStake,
			repository.Ref{Type: "bet", ID: bet.ID.String()}); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return ErrInsufficientBalance
			}
			return err
		}

		return tx.DB().WithContext(ctx).Create(bet).Error
	})
	if err != nil {
		return nil, err
	}

	return bet, nil
}

// GetUserBets returns a user's bets, newest first
func (s *BetService) GetUserBets(ctx context.Context, userID uint, status string, limit, offset int) ([]models.Bet, error) {
	query := s.repo.DB().WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var bets []models.Bet
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&bets).Error; err != nil {
		return nil, fmt.Errorf("failed to get user bets: %w", err)
	}
	return bets, nil
}

// GetBet returns one of the user's bets
func (s *BetService) GetBet(ctx context.Context, userID uint, betID uuid.UUID) (*models.Bet, error) {
	var bet models.Bet
	err := s.repo.DB().WithContext(ctx).Where("id = ? AND user_id = ?", betID, userID).First(&bet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(KindNotFound, "bet not found")
	}
	if err != nil {
		return nil, err
	}
	return &bet, nil
}
