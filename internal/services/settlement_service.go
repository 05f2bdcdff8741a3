package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jyothika2406/cricket-app/internal/events"
	"github.com/Jyothika2406/cricket-app/internal/metrics"
	"github.com/Jyothika2406/cricket-app/internal/models"
	"github.com/Jyothika2406/cricket-app/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Bet resolution outcomes
const (
	OutcomeWon     = "won"
	OutcomeLost    = "lost"
	OutcomeSkipped = "skipped"
)

// SettlementService resolves a question's pending bets once an admin
// declares the correct option
type SettlementService struct {
	repo   *repository.Repository
	market *MarketService
	admin  *AdminService
	events events.Publisher
	log    *zap.Logger
}

func NewSettlementService(repo *repository.Repository, market *MarketService, admin *AdminService,
	publisher events.Publisher, log *zap.Logger) *SettlementService {
	return &SettlementService{
		repo:   repo,
		market: market,
		admin:  admin,
		events: publisher,
		log:    log.Named("settlement"),
	}
}

type SettleInput struct {
	AdminID    uint `json:"-"`
	MatchID    uint `json:"-"`
	QuestionID uint `json:"-"`
	// a pointer so that a missing answer is rejected instead of settling on 0
	CorrectOption *int `json:"correct_option" binding:"required"`
}

// SettlementReport summarises one settlement run. Unresolved counts bets
// left pending by an error or cancellation; ResumeSettlement picks them up.
type SettlementReport struct {
	MatchID       uint            `json:"match_id"`
	QuestionID    uint            `json:"question_id"`
	CorrectOption int             `json:"correct_option"`
	WinningText   string          `json:"winning_option"`
	TotalBets     int             `json:"total_bets"`
	Winners       int             `json:"winners"`
	Losers        int             `json:"losers"`
	Unresolved    int             `json:"unresolved"`
	TotalPayout   decimal.Decimal `json:"total_payout"`
}

// SettleQuestion marks the question settled, exactly once, then resolves
// every pending bet on it. Each bet is resolved in its own transaction, so a
// failure part way leaves a consistent, resumable state.
func (s *SettlementService) SettleQuestion(ctx context.Context, in SettleInput) (*SettlementReport, error) {
	if _, err := s.admin.RequireAdmin(ctx, in.AdminID); err != nil {
		return nil, err
	}

	question, err := s.market.loadQuestion(ctx, s.repo.DB(), in.MatchID, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if question.Status == models.QuestionStatusSettled {
		return nil, ErrAlreadySettled
	}
	if in.CorrectOption == nil {
		return nil, fmt.Errorf("%w: correct option required", ErrInvalidInput)
	}
	correct := *in.CorrectOption
	if correct < 0 || correct >= len(question.Options) {
		return nil, ErrInvalidOption
	}

	now := s.market.Now()
	result := s.repo.DB().WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ? AND match_id = ? AND status <> ?", in.QuestionID, in.MatchID, models.QuestionStatusSettled).
		Updates(map[string]interface{}{
			"status":         models.QuestionStatusSettled,
			"correct_option": correct,
			"settled_at":     now,
			"settled_by":     in.AdminID,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to settle question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadySettled
	}
	s.market.invalidate(ctx)

	winningText := question.Options[correct].Text
	s.log.Info("question settled",
		zap.Uint("question_id", in.QuestionID),
		zap.Int("correct_option", correct),
		zap.String("winning_text", winningText),
		zap.Uint("admin_id", in.AdminID),
	)

	report, err := s.resolvePending(ctx, in.MatchID, in.QuestionID, correct, winningText)
	if err != nil {
		return nil, err
	}

	s.admin.LogAdminAction(ctx, in.AdminID, "SETTLE_QUESTION", "QUESTION", fmt.Sprint(in.QuestionID), map[string]interface{}{
		"correct_option": correct,
		"total_bets":     report.TotalBets,
		"winners":        report.Winners,
		"total_payout":   report.TotalPayout.String(),
	})
	s.publish(ctx, report, in.AdminID, false)
	return report, nil
}

// ResumeSettlement re-runs bet resolution for a settled question whose
// earlier run left bets pending
func (s *SettlementService) ResumeSettlement(ctx context.Context, adminID, questionID uint) (*SettlementReport, error) {
	if _, err := s.admin.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	report, err := s.resume(ctx, questionID)
	if err != nil {
		return nil, err
	}
	s.admin.LogAdminAction(ctx, adminID, "RESUME_SETTLEMENT", "QUESTION", fmt.Sprint(questionID), map[string]interface{}{
		"total_bets": report.TotalBets,
		"unresolved": report.Unresolved,
	})
	s.publish(ctx, report, adminID, true)
	return report, nil
}

// ReconcilePending resumes every settled question that still has pending bets
func (s *SettlementService) ReconcilePending(ctx context.Context) ([]SettlementReport, error) {
	questionIDs, err := s.FindUnfinishedSettlements(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]SettlementReport, 0, len(questionIDs))
	for _, id := range questionIDs {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
		report, err := s.resume(ctx, id)
		if err != nil {
			s.log.Error("resume settlement failed", zap.Uint("question_id", id), zap.Error(err))
			continue
		}
		s.publish(ctx, report, 0, true)
		reports = append(reports, *report)
	}
	return reports, nil
}

// FindUnfinishedSettlements lists settled questions with pending bets
func (s *SettlementService) FindUnfinishedSettlements(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.repo.DB().WithContext(ctx).
		Model(&models.Question{}).
		Distinct().
		Joins("JOIN bets ON bets.question_id = questions.id").
		Where("questions.status = ? AND bets.status = ?", models.QuestionStatusSettled, models.BetStatusPending).
		Pluck("questions.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find unfinished settlements: %w", err)
	}
	return ids, nil
}

func (s *SettlementService) resume(ctx context.Context, questionID uint) (*SettlementReport, error) {
	var question models.Question
	err := s.repo.DB().WithContext(ctx).Select("id", "match_id").First(&question, questionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	full, err := s.market.loadQuestion(ctx, s.repo.DB(), question.MatchID, questionID)
	if err != nil {
		return nil, err
	}
	if full.Status != models.QuestionStatusSettled || full.CorrectOption == nil {
		return nil, ErrQuestionNotSettled
	}
	idx := *full.CorrectOption
	if idx < 0 || idx >= len(full.Options) {
		return nil, ErrInvalidOption
	}

	return s.resolvePending(ctx, full.MatchID, full.ID, idx, full.Options[idx].Text)
}

func (s *SettlementService) resolvePending(ctx context.Context, matchID, questionID uint, correct int, winningText string) (*SettlementReport, error) {
	start := time.Now()
	defer func() {
		metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}()

	report := &SettlementReport{
		MatchID:       matchID,
		QuestionID:    questionID,
		CorrectOption: correct,
		WinningText:   winningText,
		TotalPayout:   decimal.Zero,
	}

	var bets []models.Bet
	if err := s.repo.DB().WithContext(ctx).
		Where("question_id = ? AND status = ?", questionID, models.BetStatusPending).
		Order("created_at ASC").
		Find(&bets).Error; err != nil {
		return nil, fmt.Errorf("failed to load pending bets: %w", err)
	}
	report.TotalBets = len(bets)

	for i := range bets {
		if ctx.Err() != nil {
			report.Unresolved += len(bets) - i
			s.log.Warn("settlement interrupted",
				zap.Uint("question_id", questionID),
				zap.Int("remaining", len(bets)-i),
			)
			break
		}

		outcome, payout, err := s.ResolveBet(ctx, &bets[i], winningText)
		if err != nil {
			report.Unresolved++
			s.log.Error("failed to resolve bet", zap.String("bet_id", bets[i].ID.String()), zap.Error(err))
			continue
		}

		switch outcome {
		case OutcomeWon:
			report.Winners++
			report.TotalPayout = report.TotalPayout.Add(payout)
		case OutcomeLost:
			report.Losers++
		}
	}

	s.log.Info("settlement run finished",
		zap.Uint("question_id", questionID),
		zap.Int("total_bets", report.TotalBets),
		zap.Int("winners", report.Winners),
		zap.Int("losers", report.Losers),
		zap.Int("unresolved", report.Unresolved),
		zap.String("total_payout", report.TotalPayout.String()),
	)
	return report, nil
}

// ResolveBet moves one bet out of pending and credits a winner's payout in
// the same transaction. A bet that is no longer pending is skipped, so the
// step is safe to repeat.
func (s *SettlementService) ResolveBet(ctx context.Context, bet *models.Bet, winningText string) (string, decimal.Decimal, error) {
	won := bet.SelectedOption == winningText
	status := models.BetStatusLost
	payout := decimal.Zero
	if won {
		status = models.BetStatusWon
		payout = bet.Amount.Mul(bet.Odds).Round(2)
	}

	outcome := OutcomeSkipped
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		result := tx.DB().WithContext(ctx).
			Model(&models.Bet{}).
			Where("id = ? AND status = ?", bet.ID, models.BetStatusPending).
			Updates(map[string]interface{}{
				"status":     status,
				"payout":     payout,
				"settled_at": s.market.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update bet: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if won {
			if _, err := tx.Credit(ctx, bet.UserID, payout, models.LedgerBetPayout,
				repository.Ref{Type: "bet", ID: bet.ID.String()}); err != nil {
				return err
			}
		}
		outcome = status
		return nil
	})
	if err != nil {
		return OutcomeSkipped, decimal.Zero, err
	}

	if outcome == OutcomeSkipped {
		return outcome, decimal.Zero, nil
	}

	metrics.BetsResolved.WithLabelValues(outcome).Inc()
	if won {
		p, _ := payout.Float64()
		metrics.SettlementPayout.Add(p)
	}
	bet.Status = status
	bet.Payout = payout
	return outcome, payout, nil
}

func (s *SettlementService) publish(ctx context.Context, report *SettlementReport, adminID uint, resumed bool) {
	if err := s.events.PublishQuestionSettled(ctx, events.QuestionSettled{
		MatchID:       report.MatchID,
		QuestionID:    report.QuestionID,
		CorrectOption: report.CorrectOption,
		WinningText:   report.WinningText,
		TotalBets:     report.TotalBets,
		Winners:       report.Winners,
		Losers:        report.Losers,
		Unresolved:    report.Unresolved,
		TotalPayout:   report.TotalPayout.String(),
		SettledBy:     adminID,
		Resumed:       resumed,
		Ts:            time.Now(),
	}); err != nil {
		s.log.Warn("failed to publish question settled", zap.Uint("question_id", report.QuestionID), zap.Error(err))
	}
}
