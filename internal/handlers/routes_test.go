package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jyothika2406/cricket-app/internal/auth"
	"github.com/Jyothika2406/cricket-app/internal/config"
	"github.com/Jyothika2406/cricket-app/internal/database"
	"github.com/Jyothika2406/cricket-app/internal/events"
	"github.com/Jyothika2406/cricket-app/internal/middleware"
	"github.com/Jyothika2406/cricket-app/internal/models"
	"github.com/Jyothika2406/cricket-app/internal/repository"
	"github.com/Jyothika2406/cricket-app/internal/services"
	"github.com/Jyothika2406/cricket-app/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func setupTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	auth.InitJWT("handler-test-secret")
	if err := utils.RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators failed: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.AutoMigrate(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	log := zap.NewNop()
	limits := config.BettingConfig{
		MinBet:          decimal.NewFromInt(10),
		MaxBet:          decimal.NewFromInt(100000),
		MinDeposit:      decimal.NewFromInt(100),
		MinWithdrawal:   decimal.NewFromInt(500),
		DefaultAdminUPI: "admin@upi",
	}
	repo := repository.NewRepository(db)
	admin := services.NewAdminService(db, log)
	settings := services.NewSettingsService(db, admin, limits)
	market := services.NewMarketService(db, admin, nil, log)
	kyc := services.NewKYCService(db, admin, log)
	users := services.NewUserService(repo)
	pub := events.NopPublisher{}

	router := gin.New()
	SetupRoutes(router, Handlers{
		Auth:        NewAuthHandler(services.NewAuthService(db, log), users),
		User:        NewUserHandler(users, kyc),
		Match:       NewMatchHandler(market),
		Bet:         NewBetHandler(services.NewBetService(repo, market, settings, pub, log), services.NewSettlementService(repo, market, admin, pub, log)),
		Transaction: NewTransactionHandler(services.NewTransactionService(repo, admin, settings, limits, pub, log), settings),
		Admin:       NewAdminHandler(admin, settings, kyc),
	}, middleware.NewRateLimiter(100, 100))

	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON response %q", method, path, w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) adminToken(t *testing.T) string {
	admin := &models.User{
		Name: "Admin", Email: "admin@example.com", PasswordHash: "x",
		Role: models.RoleAdmin, KYCStatus: models.KYCStatusNone, ReferralCode: "REFADMIN1",
	}
	if err := s.db.Create(admin).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	token, err := auth.GenerateToken(admin.ID, admin.Email)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return token
}

func TestStatusForKind(t *testing.T) {
	cases := map[services.Kind]int{
		services.KindInvalidAmount:              http.StatusBadRequest,
		services.KindInvalidOption:              http.StatusBadRequest,
		services.KindUnauthorized:               http.StatusUnauthorized,
		services.KindKYCRequired:                http.StatusForbidden,
		services.KindNotFound:                   http.StatusNotFound,
		services.KindAlreadySettled:             http.StatusConflict,
		services.KindDuplicatePendingWithdrawal: http.StatusConflict,
		services.KindInsufficientBalance:        http.StatusUnprocessableEntity,
		services.KindBettingClosed:              http.StatusUnprocessableEntity,
		services.KindInternal:                   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := statusForKind(kind); got != want {
			t.Errorf("%s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestBettingFlowOverHTTP(t *testing.T) {
	s := setupTestServer(t)
	adminToken := s.adminToken(t)

	code, res := s.do(t, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"name": "Player", "email": "player@example.com", "password": "secret1",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", code, res.Error)
	}
	var registered struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	if err := json.Unmarshal(res.Data, &registered); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	userToken := registered.Token

	code, _ = s.do(t, http.MethodGet, "/api/admin/matches", userToken, nil)
	if code != http.StatusForbidden {
		t.Errorf("non-admin: expected 403, got %d", code)
	}
	code, _ = s.do(t, http.MethodGet, "/api/user/wallet", "", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", code)
	}

	code, res = s.do(t, http.MethodPost, "/api/admin/matches", adminToken, map[string]interface{}{
		"title": "India vs England", "team1": "India", "team2": "England",
		"start_time": time.Now().UTC().Add(2 * time.Hour).Format(time.RFC3339),
	})
	if code != http.StatusCreated {
		t.Fatalf("create match: expected 201, got %d (%s)", code, res.Error)
	}
	var match models.Match
	if err := json.Unmarshal(res.Data, &match); err != nil {
		t.Fatalf("failed to decode match: %v", err)
	}

	code, res = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/matches/%d/questions", match.ID), adminToken, map[string]interface{}{
		"question": "Who wins?",
		"options": []map[string]interface{}{
			{"text": "India", "odds": "1.80"},
			{"text": "England", "odds": "2.20"},
		},
	})
	if code != http.StatusCreated {
		t.Fatalf("add question: expected 201, got %d (%s)", code, res.Error)
	}
	var question models.Question
	if err := json.Unmarshal(res.Data, &question); err != nil {
		t.Fatalf("failed to decode question: %v", err)
	}

	bet := map[string]interface{}{
		"match_id": match.ID, "question_id": question.ID, "selected_option": 0, "amount": "100",
	}
	code, res = s.do(t, http.MethodPost, "/api/bets", userToken, bet)
	if code != http.StatusUnprocessableEntity || res.Code != string(services.KindInsufficientBalance) {
		t.Fatalf("bet without funds: expected 422 insufficient_balance, got %d %s", code, res.Code)
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", registered.User.ID).
		Update("wallet_balance", decimal.NewFromInt(1000)).Error; err != nil {
		t.Fatalf("failed to fund user: %v", err)
	}
	code, res = s.do(t, http.MethodPost, "/api/bets", userToken, bet)
	if code != http.StatusCreated {
		t.Fatalf("place bet: expected 201, got %d (%s)", code, res.Error)
	}

	settlePath := fmt.Sprintf("/api/admin/matches/%d/questions/%d/settle", match.ID, question.ID)
	code, res = s.do(t, http.MethodPost, settlePath, adminToken, map[string]interface{}{"correct_option": 0})
	if code != http.StatusOK {
		t.Fatalf("settle: expected 200, got %d (%s)", code, res.Error)
	}
	code, res = s.do(t, http.MethodPost, settlePath, adminToken, map[string]interface{}{"correct_option": 0})
	if code != http.StatusConflict || res.Code != string(services.KindAlreadySettled) {
		t.Errorf("second settle: expected 409 already_settled, got %d %s", code, res.Code)
	}

	code, res = s.do(t, http.MethodGet, "/api/user/wallet", userToken, nil)
	if code != http.StatusOK {
		t.Fatalf("wallet: expected 200, got %d", code)
	}
	var wallet services.Wallet
	if err := json.Unmarshal(res.Data, &wallet); err != nil {
		t.Fatalf("failed to decode wallet: %v", err)
	}
	if !wallet.Balance.Equal(decimal.NewFromInt(1080)) {
		t.Errorf("expected balance 1080, got %s", wallet.Balance)
	}
}

func TestInvalidPathParam(t *testing.T) {
	s := setupTestServer(t)
	adminToken := s.adminToken(t)

	code, res := s.do(t, http.MethodPost, "/api/admin/matches/abc/complete", adminToken, nil)
	if code != http.StatusBadRequest || res.Code != string(services.KindInvalidInput) {
		t.Errorf("expected 400 invalid_input, got %d %s", code, res.Code)
	}
}

func TestMissingOptionIsRejected(t *testing.T) {
	s := setupTestServer(t)
	adminToken := s.adminToken(t)

	code, res := s.do(t, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"name": "Player", "email": "player@example.com", "password": "secret1",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", code, res.Error)
	}
	var registered struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	if err := json.Unmarshal(res.Data, &registered); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", registered.User.ID).
		Update("wallet_balance", decimal.NewFromInt(1000)).Error; err != nil {
		t.Fatalf("failed to fund user: %v", err)
	}

	_, res = s.do(t, http.MethodPost, "/api/admin/matches", adminToken, map[string]interface{}{
		"title": "India vs England", "team1": "India", "team2": "England",
		"start_time": time.Now().UTC().Add(2 * time.Hour).Format(time.RFC3339),
	})
	var match models.Match
	if err := json.Unmarshal(res.Data, &match); err != nil {
		t.Fatalf("failed to decode match: %v", err)
	}
	_, res = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/matches/%d/questions", match.ID), adminToken, map[string]interface{}{
		"question": "Who wins?",
		"options": []map[string]interface{}{
			{"text": "India", "odds": "1.80"},
			{"text": "England", "odds": "2.20"},
		},
	})
	var question models.Question
	if err := json.Unmarshal(res.Data, &question); err != nil {
		t.Fatalf("failed to decode question: %v", err)
	}

	code, res = s.do(t, http.MethodPost, "/api/bets", registered.Token, map[string]interface{}{
		"match_id": match.ID, "question_id": question.ID, "amount": "100",
	})
	if code != http.StatusBadRequest || res.Code != string(services.KindInvalidInput) {
		t.Errorf("bet without option: expected 400 invalid_input, got %d %s", code, res.Code)
	}

	settlePath := fmt.Sprintf("/api/admin/matches/%d/questions/%d/settle", match.ID, question.ID)
	for _, body := range []map[string]interface{}{{}, {"correctOption": 1}} {
		code, res = s.do(t, http.MethodPost, settlePath, adminToken, body)
		if code != http.StatusBadRequest || res.Code != string(services.KindInvalidInput) {
			t.Errorf("settle with %v: expected 400 invalid_input, got %d %s", body, code, res.Code)
		}
	}

	var stored models.Question
	if err := s.db.First(&stored, question.ID).Error; err != nil {
		t.Fatalf("failed to load question: %v", err)
	}
	if stored.Status != models.QuestionStatusOpen {
		t.Fatalf("expected question to stay open, got %s", stored.Status)
	}
	var user models.User
	if err := s.db.First(&user, registered.User.ID).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if !user.WalletBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected balance untouched at 1000, got %s", user.WalletBalance)
	}

	// the correctly named field still settles
	code, res = s.do(t, http.MethodPost, settlePath, adminToken, map[string]interface{}{"correct_option": 1})
	if code != http.StatusOK {
		t.Errorf("settle: expected 200, got %d (%s)", code, res.Error)
	}
}
