package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jyothika2406/cricket-app/internal/config"
	"github.com/Jyothika2406/cricket-app/internal/database"
	"github.com/Jyothika2406/cricket-app/internal/events"
	"github.com/Jyothika2406/cricket-app/internal/models"
	"github.com/Jyothika2406/cricket-app/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var userSeq atomic.Int64

type recordingPublisher struct {
	mu       sync.Mutex
	bets     []events.BetPlaced
	settled  []events.QuestionSettled
	resolved []events.TransactionResolved
}

func (p *recordingPublisher) PublishBetPlaced(_ context.Context, e events.BetPlaced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bets = append(p.bets, e)
	return nil
}

func (p *recordingPublisher) PublishQuestionSettled(_ context.Context, e events.QuestionSettled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settled = append(p.settled, e)
	return nil
}

func (p *recordingPublisher) PublishTransactionResolved(_ context.Context, e events.TransactionResolved) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = append(p.resolved, e)
	return nil
}

type testEnv struct {
	ctx        context.Context
	db         *gorm.DB
	repo       *repository.Repository
	admin      *AdminService
	settings   *SettingsService
	market     *MarketService
	bets       *BetService
	settlement *SettlementService
	txs        *TransactionService
	kyc        *KYCService
	pub        *recordingPublisher
	adminUser  *models.User
}

func setupTestDB(t testing.TB) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	// one connection keeps the in-memory database alive and serialises writers
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func testLimits() config.BettingConfig {
	return config.BettingConfig{
		MinBet:          decimal.NewFromInt(10),
		MaxBet:          decimal.NewFromInt(100000),
		MinDeposit:      decimal.NewFromInt(100),
		MinWithdrawal:   decimal.NewFromInt(500),
		DefaultAdminUPI: "admin@upi",
	}
}

func newTestEnv(t testing.TB) *testEnv {
	db := setupTestDB(t)
	log := zap.NewNop()
	pub := &recordingPublisher{}

	repo := repository.NewRepository(db)
	admin := NewAdminService(db, log)
	settings := NewSettingsService(db, admin, testLimits())
	market := NewMarketService(db, admin, nil, log)

	env := &testEnv{
		ctx:        context.Background(),
		db:         db,
		repo:       repo,
		admin:      admin,
		settings:   settings,
		market:     market,
		bets:       NewBetService(repo, market, settings, pub, log),
		settlement: NewSettlementService(repo, market, admin, pub, log),
		txs:        NewTransactionService(repo, admin, settings, testLimits(), pub, log),
		kyc:        NewKYCService(db, admin, log),
		pub:        pub,
	}
	env.adminUser = env.createUser(t, "0")
	if err := db.Model(env.adminUser).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote admin: %v", err)
	}
	return env
}

func (e *testEnv) createUser(t testing.TB, balance string) *models.User {
	n := userSeq.Add(1)
	user := &models.User{
		Name:          fmt.Sprintf("Player %d", n),
		Email:         fmt.Sprintf("player%d@example.com", n),
		PasswordHash:  "x",
		WalletBalance: decimal.RequireFromString(balance),
		Role:          models.RoleUser,
		KYCStatus:     models.KYCStatusNone,
		ReferralCode:  fmt.Sprintf("REFT%05d", n),
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// setClock pins the market clock, which bets and settlement also read
func (e *testEnv) setClock(now time.Time) {
	e.market.now = func() time.Time { return now }
}

// createMatch creates an upcoming match starting in two hours
func (e *testEnv) createMatch(t testing.TB) *models.Match {
	match, err := e.market.CreateMatch(e.ctx, e.adminUser.ID, MatchInput{
		Title:     "India vs Australia",
		Team1:     "India",
		Team2:     "Australia",
		StartTime: time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second),
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	return match
}

// addQuestion adds a question with options "Team A" @1.90 and "Team B" @2.10
func (e *testEnv) addQuestion(t testing.TB, matchID uint) *models.Question {
	q, err := e.market.AddQuestion(e.ctx, e.adminUser.ID, matchID, QuestionInput{
		Text: "Who will win the toss?",
		Options: []OptionInput{
			{Text: "Team A", Odds: decimal.RequireFromString("1.90")},
			{Text: "Team B", Odds: decimal.RequireFromString("2.10")},
		},
	})
	if err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}
	return q
}

func (e *testEnv) placeBet(t testing.TB, userID, matchID, questionID uint, option int, amount string) *models.Bet {
	bet, err := e.bets.PlaceBet(e.ctx, PlaceBetInput{
		UserID:         userID,
		MatchID:        matchID,
		QuestionID:     questionID,
		SelectedOption: intPtr(option),
		Amount:         decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	return bet
}

func intPtr(n int) *int { return &n }

func (e *testEnv) balance(t testing.TB, userID uint) decimal.Decimal {
	var user models.User
	if err := e.db.Select("id", "wallet_balance").First(&user, userID).Error; err != nil {
		t.Fatalf("failed to load balance: %v", err)
	}
	return user.WalletBalance
}

func assertBalance(t testing.TB, e *testEnv, userID uint, want string) {
	t.Helper()
	if got := e.balance(t, userID); !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("user %d balance: expected %s, got %s", userID, want, got)
	}
}

func assertKind(t testing.TB, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}

// assertLedgerConserved checks the stored balance equals the opening
// balance plus every ledger movement
func assertLedgerConserved(t testing.TB, e *testEnv, userID uint, opening string) {
	t.Helper()
	sum, err := e.repo.LedgerSum(e.ctx, userID)
	if err != nil {
		t.Fatalf("LedgerSum failed: %v", err)
	}
	want := decimal.RequireFromString(opening).Add(sum)
	if got := e.balance(t, userID); !got.Equal(want) {
		t.Errorf("user %d: balance %s does not match opening %s + ledger %s", userID, got, opening, sum)
	}
}
