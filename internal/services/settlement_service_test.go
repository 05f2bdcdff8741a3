package services

import (
	"testing"

	"github.com/Jyothika2406/cricket-app/internal/models"

	"github.com/shopspring/decimal"
)

func TestSettleQuestionPaysWinners(t *testing.T) {
	env := newTestEnv(t)
	winner := env.createUser(t, "1000")
	loser := env.createUser(t, "1000")
	match := env.createMatch(t)
	q := env.addQuestion(t, match.ID)

	winBet := env.placeBet(t, winner.ID, match.ID, q.ID, 0, "200")
	loseBet := env.placeBet(t, loser.ID, match.ID, q.ID, 1, "200")
	assertBalance(t, env, winner.ID, "800")

	report, err := env.settlement.SettleQuestion(env.ctx, SettleInput{
		AdminID: env.adminUser.ID, MatchID: match.ID, QuestionID: q.ID, CorrectOption: intPtr(0),
	})
	if err != nil {
		t.Fatalf("SettleQuestion failed: %v", err)
	}

	if report.TotalBets != 2 || report.Winners != 1 || report.Losers != 1 || report.Unresolved != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if !report.TotalPayout.Equal(decimal.NewFromInt(380)) {
		t.Errorf("expected total payout 380, got %s", report.TotalPayout)
	}
	if report.WinningText != "Team A" {
		t.Errorf("expected winning text Team A, got %q", report.WinningText)
	}

	assertBalance(t, env, winner.ID, "1180")
	assertBalance(t, env, loser.ID, "800")

	var stored models.Bet
	env.db.First(&stored, "id = ?", winBet.ID)
	if stored.Status != models.BetStatusWon || !stored.Payout.Equal(decimal.NewFromInt(380)) || stored.SettledAt == nil {
		t.Errorf("unexpected winning bet: %+v", stored)
	}
	env.db.First(&stored, "id = ?", loseBet.ID)
	if stored.Status != models.BetStatusLost || !stored.Payout.IsZero() {
		t.Errorf("unexpected losing bet: %+v", stored)
	}

	var question models.Question
	env.db.First(&question, q.ID)
	if question.Status != models.QuestionStatusSettled || question.CorrectOption == nil || *question.CorrectOption != 0 {
		t.Errorf("unexpected question state: %+v", question)
	}

	if len(env.pub.settled) != 1 || env.pub.settled[0].Resumed {
		t.Errorf("expected one non-resumed settlement event, got %+v", env.pub.settled)
	}

	assertLedgerConserved(t, env, winner.ID, "1000")
	assertLedgerConserved(t, env, loser.ID, "1000")
}

func TestSettleQuestionOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "1000")
	match := env.createMatch(t)
	q := env.addQuestion(t, match.ID)
	env.placeBet(t, user.ID, match.ID, q.ID, 0, "100")

	in := SettleInput{AdminID: env.adminUser.ID, MatchID: match.ID, QuestionID: q.ID, CorrectOption: intPtr(0)}
	if _, err := env.settlement.SettleQuestion(env.ctx, in); err != nil {
		t.Fatalf("SettleQuestion failed: %v", err)
	}
	assertBalance(t, env, user.ID, "1090")

	_, err := env.settlement.SettleQuestion(env.ctx, in)
	assertKind(t, err, KindAlreadySettled)

	in.CorrectOption = intPtr(1)
	_, err = env.settlement.SettleQuestion(env.ctx, in)
	assertKind(t, err, KindAlreadySettled)

	// the settled state wins over a bad index
	in.CorrectOption = intPtr(7)
	_, err = env.settlement.SettleQuestion(env.ctx, in)
	assertKind(t, err, KindAlreadySettled)

	assertBalance(t, env, user.ID, "1090")
	assertLedgerConserved(t, env, user.ID, "1000")
}

func TestSettleQuestionValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "1000")
	match := env.createMatch(t)
	q := env.addQuestion(t, match.ID)

	_, err := env.settlement.SettleQuestion(env.ctx, SettleInput{
		AdminID: user.ID, MatchID: match.ID, QuestionID: q.ID,
	})
	assertKind(t, err, KindForbidden)

	_, err = env.settlement.SettleQuestion(env.ctx, SettleInput{
		AdminID: env.adminUser.ID, MatchID: match.ID, QuestionID: q.ID, CorrectOption: intPtr(2),
	})
	assertKind(t, err, KindInvalidOption)

	// a missing answer must never default to the first option
	_, err = env.settlement.SettleQuestion(env.ctx, SettleInput{
		AdminID: env.adminUser.ID, MatchID: match.ID, QuestionID: q.ID,
	})
	assertKind(t, err, KindInvalidInput)
	var stored models.Question
	if err := env.db.First(&stored, q.ID).Error; err != nil {
		t.Fatalf("failed to load question: %v", err)
	}
	if stored.Status != models.QuestionStatusOpen || stored.CorrectOption != nil {
		t.Errorf("expected question to stay open, got %s", stored.Status)
	}

	_, err = env.settlement.SettleQuestion(env.ctx, SettleInput{
		AdminID: env.adminUser.ID, MatchID: match.ID, QuestionID: 9999,
	})
	assertKind(t, err, KindNotFound)

	// a closed question can still be settled
	if err := env.market.CloseQuestion(env.ctx, env.adminUser.ID, match.ID, q.ID); err != nil {
		t.Fatalf("CloseQuestion failed: %v", err)
	}
	if _, err := env.settlement.SettleQuestion(env.ctx, SettleInput{
		AdminID: env.adminUser.ID, MatchID: match.ID, QuestionID: q.ID, CorrectOption: intPtr(1),
	}); err != nil {
		t.Fatalf("SettleQuestion on closed question failed: %v", err)
	}

	err = env.market.CloseQuestion(env.ctx, env.adminUser.ID, match.ID, q.ID)
	assertKind(t, err, KindAlreadySettled)
}

func TestSettledQuestionRejectsBets(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "1000")
	match := env.createMatch(t)
	q := env.addQuestion(t, match.ID)

	if _, err := env.settlement.SettleQuestion(env.ctx, SettleInput{
		AdminID: env.adminUser.ID, MatchID: match.ID, QuestionID: q.ID, CorrectOption: intPtr(0),
	}); err != nil {
		t.Fatalf("SettleQuestion failed: %v", err)
	}

	_, err := env.bets.PlaceBet(env.ctx, PlaceBetInput{
		UserID: user.ID, MatchID: match.ID, QuestionID: q.ID, SelectedOption: intPtr(0), Amount: decimal.NewFromInt(100),
	})
	assertKind(t, err, KindQuestionClosed)
	assertBalance(t, env, user.ID, "1000")
}

func TestResolveBetIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "1000")
	match := env.createMatch(t)
	q := env.addQuestion(t, match.ID)
	bet := env.placeBet(t, user.ID, match.ID, q.ID, 1, "100")

	stale := *bet
	outcome, payout, err := env.settlement.ResolveBet(env.ctx, bet, "Team B")
	if err != nil {
		t.Fatalf("ResolveBet failed: %v", err)
	}
	if outcome != OutcomeWon || !payout.Equal(decimal.NewFromInt(210)) {
		t.Errorf("expected won with 210, got %s with %s", outcome, payout)
	}

	outcome, payout, err = env.settlement.ResolveBet(env.ctx, &stale, "Team B")
	if err != nil {
		t.Fatalf("second ResolveBet failed: %v", err)
	}
	if outcome != OutcomeSkipped || !payout.IsZero() {
		t.Errorf("expected skipped, got %s with %s", outcome, payout)
	}

	assertBalance(t, env, user.ID, "1110")
	assertLedgerConserved(t, env, user.ID, "1000")
}

func TestReconcilePendingFinishesInterruptedSettlement(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "1000")
	b := env.createUser(t, "1000")
	match := env.createMatch(t)
	q := env.addQuestion(t, match.ID)
	env.placeBet(t, a.ID, match.ID, q.ID, 0, "100")
	env.placeBet(t, b.ID, match.ID, q.ID, 1, "100")

	// a settlement that marked the question and stopped before any bet
	correct := 1
	if err := env.db.Model(&models.Question{}).Where("id = ?", q.ID).Updates(map[string]interface{}{
		"status":         models.QuestionStatusSettled,
		"correct_option": correct,
	}).Error; err != nil {
		t.Fatalf("failed to mark question settled: %v", err)
	}

	ids, err := env.settlement.FindUnfinishedSettlements(env.ctx)
	if err != nil {
		t.Fatalf("FindUnfinishedSettlements failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != q.ID {
		t.Fatalf("expected question %d unfinished, got %v", q.ID, ids)
	}

	reports, err := env.settlement.ReconcilePending(env.ctx)
	if err != nil {
		t.Fatalf("ReconcilePending failed: %v", err)
	}
	if len(reports) != 1 || reports[0].Winners != 1 || reports[0].Losers != 1 {
		t.Fatalf("unexpected reports: %+v", reports)
	}

	assertBalance(t, env, a.ID, "900")
	assertBalance(t, env, b.ID, "1110")

	ids, err = env.settlement.FindUnfinishedSettlements(env.ctx)
	if err != nil {
		t.Fatalf("FindUnfinishedSettlements failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected nothing unfinished, got %v", ids)
	}

	// a second resume finds nothing left to pay
	report, err := env.settlement.ResumeSettlement(env.ctx, env.adminUser.ID, q.ID)
	if err != nil {
		t.Fatalf("ResumeSettlement failed: %v", err)
	}
	if report.TotalBets != 0 {
		t.Errorf("expected no pending bets, got %d", report.TotalBets)
	}
	assertBalance(t, env, b.ID, "1110")
	assertLedgerConserved(t, env, a.ID, "1000")
	assertLedgerConserved(t, env, b.ID, "1000")
}

func TestResumeSettlementRequiresSettledQuestion(t *testing.T) {
	env := newTestEnv(t)
	match := env.createMatch(t)
	q := env.addQuestion(t, match.ID)

	_, err := env.settlement.ResumeSettlement(env.ctx, env.adminUser.ID, q.ID)
	assertKind(t, err, KindQuestionNotSettled)

	_, err = env.settlement.ResumeSettlement(env.ctx, env.adminUser.ID, 9999)
	assertKind(t, err, KindNotFound)
}
