package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jyothika2406/cricket-app/internal/metrics"
	"github.com/Jyothika2406/cricket-app/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	publicMatchesKey        = "matches:public"
	publicMatchesVersionKey = "matches:public:version"
)

var minOdds = decimal.NewFromInt(1)

// MatchCache caches rendered match listings. Listings are stored under a
// versioned key and writers bump the version, so a listing rendered before a
// write can never be served after it.
type MatchCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Incr(ctx context.Context, key string) (int64, error)
}

// MatchView is a match with its derived status flags
type MatchView struct {
	models.Match
	BettingOpen bool `json:"betting_open"`
	Editable    bool `json:"editable"`
}

// MarketService owns the match and question state machine
type MarketService struct {
	db    *gorm.DB
	admin *AdminService
	cache MatchCache
	log   *zap.Logger
	now   func() time.Time
}

func NewMarketService(db *gorm.DB, admin *AdminService, cache MatchCache, log *zap.Logger) *MarketService {
	return &MarketService{
		db:    db,
		admin: admin,
		cache: cache,
		log:   log.Named("market"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Now returns the clock the state machine evaluates against
func (s *MarketService) Now() time.Time {
	return s.now()
}

type MatchInput struct {
	Title     string    `json:"title" binding:"required"`
	Team1     string    `json:"team1" binding:"required"`
	Team2     string    `json:"team2" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
}

type MatchUpdate struct {
	Title     *string    `json:"title"`
	Team1     *string    `json:"team1"`
	Team2     *string    `json:"team2"`
	StartTime *time.Time `json:"start_time"`
}

type OptionInput struct {
	Text string          `json:"text" binding:"required"`
	Odds decimal.Decimal `json:"odds"`
}

type QuestionInput struct {
	Text    string        `json:"question" binding:"required"`
	Options []OptionInput `json:"options" binding:"required,min=2,dive"`
}

// SweepStatuses persists upcoming -> live for every match whose start time
// has passed. It is one conditional update, safe to run from anywhere.
func (s *MarketService) SweepStatuses(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("status = ? AND start_time <= ?", models.MatchStatusUpcoming, s.now()).
		Update("status", models.MatchStatusLive)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep match statuses: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.MatchesSwept.Add(float64(result.RowsAffected))
		s.invalidate(ctx)
		s.log.Info("matches moved to live", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *MarketService) CreateMatch(ctx context.Context, adminID uint, in MatchInput) (*models.Match, error) {
	if _, err := s.admin.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Team1 = strings.TrimSpace(in.Team1)
	in.Team2 = strings.TrimSpace(in.Team2)
	if in.Title == "" || in.Team1 == "" || in.Team2 == "" {
		return nil, fmt.Errorf("%w: title, team1 and team2 are required", ErrInvalidInput)
	}
	if !in.StartTime.After(s.now()) {
		return nil, ErrInvalidStartTime
	}

	match := &models.Match{
		Title:     in.Title,
		Team1:     in.Team1,
		Team2:     in.Team2,
		StartTime: in.StartTime.UTC(),
		Status:    models.MatchStatusUpcoming,
		CreatedBy: adminID,
	}
	if err := s.db.WithContext(ctx).Create(match).Error; err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.invalidate(ctx)
	s.admin.LogAdminAction(ctx, adminID, "CREATE_MATCH", "MATCH", fmt.Sprint(match.ID), map[string]interface{}{
		"title":      match.Title,
		"start_time": match.StartTime,
	})
	return match, nil
}

func (s *MarketService) UpdateMatch(ctx context.Context, adminID, matchID uint, in MatchUpdate) (*models.Match, error) {
	if _, err := s.admin.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	match, err := s.loadMatch(ctx, s.db, matchID)
	if err != nil {
		return nil, err
	}
	if !IsEditable(match, s.now()) {
		return nil, ErrNotEditable
	}

	updates := map[string]interface{}{}
	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Team1 != nil && strings.TrimSpace(*in.Team1) != "" {
		updates["team1"] = strings.TrimSpace(*in.Team1)
	}
	if in.Team2 != nil && strings.TrimSpace(*in.Team2) != "" {
		updates["team2"] = strings.TrimSpace(*in.Team2)
	}
	if in.StartTime != nil {
		if !in.StartTime.After(s.now()) {
			return nil, ErrInvalidStartTime
		}
		updates["start_time"] = in.StartTime.UTC()
	}
	if len(updates) == 0 {
		return match, nil
	}

	// the update only lands while the match is still upcoming
	result := s.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, models.MatchStatusUpcoming).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update match: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotEditable
	}

	s.invalidate(ctx)
	s.admin.LogAdminAction(ctx, adminID, "UPDATE_MATCH", "MATCH", fmt.Sprint(matchID), updates)
	return s.loadMatch(ctx, s.db, matchID)
}

// DeleteMatch removes an editable match with its questions and options.
// A match that already holds bets is kept so no stake is stranded.
func (s *MarketService) DeleteMatch(ctx context.Context, adminID, matchID uint) error {
	if _, err := s.admin.RequireAdmin(ctx, adminID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match, err := s.loadMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if !IsEditable(match, s.now()) {
			return ErrNotEditable
		}

		var bets int64
		if err := tx.Model(&models.Bet{}).Where("match_id = ?", matchID).Count(&bets).Error; err != nil {
			return err
		}
		if bets > 0 {
			return ErrMatchHasBets
		}

		questionIDs := tx.Model(&models.Question{}).Select("id").Where("match_id = ?", matchID)
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		if err := tx.Where("match_id = ?", matchID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Match{}, matchID).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.admin.LogAdminAction(ctx, adminID, "DELETE_MATCH", "MATCH", fmt.Sprint(matchID), nil)
	return nil
}

// CompleteMatch marks a match completed. Completion is sticky and does not
// touch questions; settle them separately.
func (s *MarketService) CompleteMatch(ctx context.Context, adminID, matchID uint) (*models.Match, error) {
	if _, err := s.admin.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND status <> ?", matchID, models.MatchStatusCompleted).
		Updates(map[string]interface{}{
			"status":       models.MatchStatusCompleted,
			"completed_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to complete match: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.loadMatch(ctx, s.db, matchID); err != nil {
			return nil, err
		}
		return nil, ErrMatchCompleted
	}

	s.invalidate(ctx)
	s.admin.LogAdminAction(ctx, adminID, "COMPLETE_MATCH", "MATCH", fmt.Sprint(matchID), nil)
	return s.loadMatch(ctx, s.db, matchID)
}

// AddQuestion appends an open question to a match that has not completed
func (s *MarketService) AddQuestion(ctx context.Context, adminID, matchID uint, in QuestionInput) (*models.Question, error) {
	if _, err := s.admin.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: question text is required", ErrInvalidInput)
	}
	if len(in.Options) < 2 {
		return nil, fmt.Errorf("%w: at least two options are required", ErrInvalidInput)
	}

	seen := make(map[string]bool, len(in.Options))
	options := make([]models.Option, 0, len(in.Options))
	for i, opt := range in.Options {
		optText := strings.TrimSpace(opt.Text)
		if optText == "" {
			return nil, fmt.Errorf("%w: option %d has no text", ErrInvalidInput, i)
		}
		// winners are matched on option text, so texts must be distinct
		if seen[optText] {
			return nil, fmt.Errorf("%w: duplicate option %q", ErrInvalidInput, optText)
		}
		seen[optText] = true
		if opt.Odds.LessThan(minOdds) {
			return nil, ErrInvalidOdds
		}
		options = append(options, models.Option{
			Position: i,
			Text:     optText,
			Odds:     opt.Odds.Round(2),
		})
	}

	var question *models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match, err := s.loadMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if match.Status == models.MatchStatusCompleted {
			return ErrMatchCompleted
		}

		var count int64
		if err := tx.Model(&models.Question{}).Where("match_id = ?", matchID).Count(&count).Error; err != nil {
			return err
		}

		question = &models.Question{
			MatchID:  matchID,
			Position: int(count),
			Text:     text,
			Status:   models.QuestionStatusOpen,
			Options:  options,
		}
		return tx.Create(question).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.admin.LogAdminAction(ctx, adminID, "ADD_QUESTION", "QUESTION", fmt.Sprint(question.ID), map[string]interface{}{
		"match_id": matchID,
		"options":  len(options),
	})
	return question, nil
}

// CloseQuestion stops betting on an open question without settling it
func (s *MarketService) CloseQuestion(ctx context.Context, adminID, matchID, questionID uint) error {
	if _, err := s.admin.RequireAdmin(ctx, adminID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ? AND match_id = ? AND status = ?", questionID, matchID, models.QuestionStatusOpen).
		Update("status", models.QuestionStatusClosed)
	if result.Error != nil {
		return fmt.Errorf("failed to close question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		q, err := s.loadQuestion(ctx, s.db, matchID, questionID)
		if err != nil {
			return err
		}
		if q.Status == models.QuestionStatusSettled {
			return ErrAlreadySettled
		}
		return ErrQuestionClosed
	}

	s.invalidate(ctx)
	s.admin.LogAdminAction(ctx, adminID, "CLOSE_QUESTION", "QUESTION", fmt.Sprint(questionID), nil)
	return nil
}

// UpdateOptionOdds edits an option's odds while its question is open and
// the match is editable. Existing bets keep their copied odds.
func (s *MarketService) UpdateOptionOdds(ctx context.Context, adminID, matchID, questionID, optionID uint, odds decimal.Decimal) (*models.Option, error) {
	if _, err := s.admin.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if odds.LessThan(minOdds) {
		return nil, ErrInvalidOdds
	}

	match, err := s.loadMatch(ctx, s.db, matchID)
	if err != nil {
		return nil, err
	}
	if !IsEditable(match, s.now()) {
		return nil, ErrNotEditable
	}
	question, err := s.loadQuestion(ctx, s.db, matchID, questionID)
	if err != nil {
		return nil, err
	}
	if question.Status != models.QuestionStatusOpen {
		return nil, ErrQuestionClosed
	}

	result := s.db.WithContext(ctx).
		Model(&models.Option{}).
		Where("id = ? AND question_id = ?", optionID, questionID).
		Update("odds", odds.Round(2))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update odds: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrOptionNotFound
	}

	s.invalidate(ctx)
	s.admin.LogAdminAction(ctx, adminID, "UPDATE_ODDS", "OPTION", fmt.Sprint(optionID), map[string]interface{}{
		"question_id": questionID,
		"odds":        odds.String(),
	})

	var option models.Option
	if err := s.db.WithContext(ctx).First(&option, optionID).Error; err != nil {
		return nil, err
	}
	return &option, nil
}

// ListMatches returns live and upcoming matches for the public listing, or
// every match for admins. Statuses are swept first.
func (s *MarketService) ListMatches(ctx context.Context, includeAll bool) ([]MatchView, error) {
	if _, err := s.SweepStatuses(ctx); err != nil {
		return nil, err
	}

	var cacheKey string
	if !includeAll && s.cache != nil {
		cacheKey = s.publicListKey(ctx)
	}
	if cacheKey != "" {
		if b, ok, err := s.cache.Get(ctx, cacheKey); err != nil {
			s.log.Warn("match cache read failed", zap.Error(err))
		} else if ok {
			var views []MatchView
			if err := json.Unmarshal(b, &views); err == nil {
				return s.refreshFlags(views), nil
			}
		}
	}

	query := s.withQuestions(s.db.WithContext(ctx))
	if includeAll {
		query = query.Order("start_time DESC")
	} else {
		query = query.Where("status IN ?", []string{models.MatchStatusUpcoming, models.MatchStatusLive}).
			Order("start_time ASC")
	}

	var matches []models.Match
	if err := query.Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	views := make([]MatchView, len(matches))
	for i := range matches {
		views[i] = MatchView{Match: matches[i]}
	}
	views = s.refreshFlags(views)

	if cacheKey != "" {
		if b, err := json.Marshal(views); err == nil {
			if err := s.cache.Set(ctx, cacheKey, b); err != nil {
				s.log.Warn("match cache write failed", zap.Error(err))
			}
		}
	}
	return views, nil
}

// GetMatch returns one match with its questions and options
func (s *MarketService) GetMatch(ctx context.Context, matchID uint) (*MatchView, error) {
	if _, err := s.SweepStatuses(ctx); err != nil {
		return nil, err
	}

	var match models.Match
	err := s.withQuestions(s.db.WithContext(ctx)).First(&match, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	views := s.refreshFlags([]MatchView{{Match: match}})
	return &views[0], nil
}

// refreshFlags recomputes derived fields so cached entries never report a
// stale betting window
func (s *MarketService) refreshFlags(views []MatchView) []MatchView {
	now := s.now()
	for i := range views {
		views[i].Status = DeriveStatus(&views[i].Match, now)
		views[i].BettingOpen = IsBettingAllowed(&views[i].Match, now)
		views[i].Editable = IsEditable(&views[i].Match, now)
	}
	return views
}

func (s *MarketService) withQuestions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (s *MarketService) loadMatch(ctx context.Context, db *gorm.DB, matchID uint) (*models.Match, error) {
	var match models.Match
	err := db.WithContext(ctx).First(&match, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	return &match, nil
}

func (s *MarketService) loadQuestion(ctx context.Context, db *gorm.DB, matchID, questionID uint) (*models.Question, error) {
	var question models.Question
	err := db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ? AND match_id = ?", questionID, matchID).
		First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	return &question, nil
}

func (s *MarketService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, publicMatchesVersionKey); err != nil {
		s.log.Warn("match cache invalidation failed", zap.Error(err))
	}
}

// publicListKey returns the listing key for the current version, read
// before the listing is queried. Empty means the cache is unavailable.
func (s *MarketService) publicListKey(ctx context.Context) string {
	b, ok, err := s.cache.Get(ctx, publicMatchesVersionKey)
	if err != nil {
		s.log.Warn("match cache version read failed", zap.Error(err))
		return ""
	}
	version := "0"
	if ok {
		version = string(b)
	}
	return publicMatchesKey + ":v" + version
}
