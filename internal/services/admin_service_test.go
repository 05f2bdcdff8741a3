package services

import (
	"strings"
	"testing"
	"time"

	"github.com/Jyothika2406/cricket-app/internal/models"

	"github.com/shopspring/decimal"
)

func TestPlatformStats(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "1000")
	match := env.createMatch(t)
	q := env.addQuestion(t, match.ID)
	env.placeBet(t, user.ID, match.ID, q.ID, 0, "100")

	dep, err := env.txs.RequestDeposit(env.ctx, DepositInput{UserID: user.ID, Amount: decimal.NewFromInt(300)})
	if err != nil {
		t.Fatalf("RequestDeposit failed: %v", err)
	}
	if _, err := env.txs.ResolveTransaction(env.ctx, ResolveInput{
		AdminID: env.adminUser.ID, TransactionID: dep.ID, Action: ActionApprove,
	}); err != nil {
		t.Fatalf("ResolveTransaction failed: %v", err)
	}
	if _, err := env.txs.RequestDeposit(env.ctx, DepositInput{UserID: user.ID, Amount: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("RequestDeposit failed: %v", err)
	}

	stats, err := env.admin.GetPlatformStats(env.ctx)
	if err != nil {
		t.Fatalf("GetPlatformStats failed: %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalMatches != 1 || stats.TotalBets != 1 || stats.PendingBets != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.PendingTransactions != 1 {
		t.Errorf("expected 1 pending transaction, got %d", stats.PendingTransactions)
	}
	if !stats.TotalDeposits.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected deposits 300, got %s", stats.TotalDeposits)
	}
	if !stats.TotalWalletBalance.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("expected wallet total 1200, got %s", stats.TotalWalletBalance)
	}
}

func TestUpdateUserRole(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "0")

	_, err := env.admin.UpdateUserRole(env.ctx, user.ID, user.ID, models.RoleAdmin)
	assertKind(t, err, KindForbidden)

	_, err = env.admin.UpdateUserRole(env.ctx, env.adminUser.ID, env.adminUser.ID, models.RoleUser)
	assertKind(t, err, KindInvalidInput)

	_, err = env.admin.UpdateUserRole(env.ctx, env.adminUser.ID, user.ID, "owner")
	assertKind(t, err, KindInvalidInput)

	promoted, err := env.admin.UpdateUserRole(env.ctx, env.adminUser.ID, user.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateUserRole failed: %v", err)
	}
	if !promoted.IsAdmin() {
		t.Errorf("expected admin, got %s", promoted.Role)
	}

	// the stored role is what counts, so the promotion applies at once
	if _, err := env.market.CreateMatch(env.ctx, user.ID, MatchInput{
		Title: "Promoted", Team1: "A", Team2: "B", StartTime: env.market.Now().Add(time.Hour),
	}); err != nil {
		t.Errorf("expected promoted user to act as admin, got %v", err)
	}

	logs, err := env.admin.GetAdminLogs(env.ctx, 10, 0)
	if err != nil {
		t.Fatalf("GetAdminLogs failed: %v", err)
	}
	if len(logs) == 0 {
		t.Error("expected admin logs")
	}
}

func TestSettingsDriveBetLimitsAndDepositUPI(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "1000")
	match := env.createMatch(t)
	q := env.addQuestion(t, match.ID)

	upi, err := env.settings.DepositUPI(env.ctx)
	if err != nil {
		t.Fatalf("DepositUPI failed: %v", err)
	}
	if upi != "admin@upi" {
		t.Errorf("expected default UPI, got %q", upi)
	}

	minBet := decimal.NewFromInt(50)
	maxBet := decimal.NewFromInt(200)
	if _, err := env.settings.Update(env.ctx, env.adminUser.ID, SettingsInput{
		AdminUPIIDs:  models.UPIAccounts{{UPIID: " Cricket@YBL ", Name: "main", IsActive: true}},
		MinBetAmount: &minBet,
		MaxBetAmount: &maxBet,
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	upi, err = env.settings.DepositUPI(env.ctx)
	if err != nil {
		t.Fatalf("DepositUPI failed: %v", err)
	}
	if upi != "cricket@ybl" {
		t.Errorf("expected saved UPI, got %q", upi)
	}

	_, err = env.bets.PlaceBet(env.ctx, PlaceBetInput{
		UserID: user.ID, MatchID: match.ID, QuestionID: q.ID, SelectedOption: intPtr(0), Amount: decimal.NewFromInt(20),
	})
	assertKind(t, err, KindInvalidAmount)
	_, err = env.bets.PlaceBet(env.ctx, PlaceBetInput{
		UserID: user.ID, MatchID: match.ID, QuestionID: q.ID, SelectedOption: intPtr(0), Amount: decimal.NewFromInt(250),
	})
	assertKind(t, err, KindInvalidAmount)
	env.placeBet(t, user.ID, match.ID, q.ID, 0, "200")

	badMax := decimal.NewFromInt(10)
	_, err = env.settings.Update(env.ctx, env.adminUser.ID, SettingsInput{MaxBetAmount: &badMax})
	assertKind(t, err, KindInvalidAmount)

	_, err = env.settings.Update(env.ctx, user.ID, SettingsInput{})
	assertKind(t, err, KindForbidden)
}

func TestGetAllUsers(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "0")
	env.createUser(t, "0")

	users, total, err := env.admin.GetAllUsers(env.ctx, 2, 0, "")
	if err != nil {
		t.Fatalf("GetAllUsers failed: %v", err)
	}
	if total != 3 || len(users) != 2 {
		t.Errorf("expected 2 of 3 users, got %d of %d", len(users), total)
	}

	users, total, err = env.admin.GetAllUsers(env.ctx, 10, 0, strings.ToUpper(a.Email))
	if err != nil {
		t.Fatalf("GetAllUsers failed: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].ID != a.ID {
		t.Errorf("expected search to find user %d, got %d results", a.ID, total)
	}
}
