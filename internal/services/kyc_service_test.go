package services

import (
	"testing"

	"github.com/Jyothika2406/cricket-app/internal/models"
)

func validKYC() KYCInput {
	return KYCInput{
		FullName:          "Rahul Sharma",
		PANNumber:         "abcde1234f",
		AadhaarNumber:     "123456789012",
		BankAccountNumber: "001234567890",
		IFSCCode:          "sbin0001234",
		BankName:          "State Bank",
		UPIID:             "Rahul@okaxis",
	}
}

// verifyKYC submits valid details for the user and has the admin verify them
func (e *testEnv) verifyKYC(t *testing.T, userID uint) *models.User {
	if _, err := e.kyc.Submit(e.ctx, userID, validKYC()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	user, err := e.kyc.Review(e.ctx, KYCReviewInput{
		AdminID: e.adminUser.ID, UserID: userID, Status: models.KYCStatusVerified,
	})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	return user
}

func TestKYCSubmitNormalisesAndPends(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "0")

	got, err := env.kyc.Submit(env.ctx, user.ID, validKYC())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got.KYCStatus != models.KYCStatusPending {
		t.Errorf("expected pending, got %s", got.KYCStatus)
	}
	if got.KYC.PANNumber != "ABCDE1234F" || got.KYC.IFSCCode != "SBIN0001234" || got.KYC.UPIID != "rahul@okaxis" {
		t.Errorf("expected normalised identifiers, got %+v", got.KYC)
	}
	if got.KYC.SubmittedAt == nil || got.KYC.BankVerified || got.KYC.UPIVerified {
		t.Errorf("unexpected verification state: %+v", got.KYC)
	}
	if IsWithdrawalEligible(got) {
		t.Error("pending KYC must not be withdrawal eligible")
	}
}

func TestKYCSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "0")

	cases := []struct {
		name   string
		mutate func(*KYCInput)
	}{
		{"missing name", func(in *KYCInput) { in.FullName = " " }},
		{"bad PAN", func(in *KYCInput) { in.PANNumber = "ABCD1234F" }},
		{"bad Aadhaar", func(in *KYCInput) { in.AadhaarNumber = "12345" }},
		{"bad IFSC", func(in *KYCInput) { in.IFSCCode = "SBIN1001234" }},
		{"bad UPI", func(in *KYCInput) { in.UPIID = "not-an-upi" }},
		{"no payout method", func(in *KYCInput) { in.BankAccountNumber, in.IFSCCode, in.UPIID = "", "", "" }},
	}
	for _, tc := range cases {
		in := validKYC()
		tc.mutate(&in)
		_, err := env.kyc.Submit(env.ctx, user.ID, in)
		if KindOf(err) != KindInvalidInput {
			t.Errorf("%s: expected invalid input, got %v", tc.name, err)
		}
	}

	_, err := env.kyc.Submit(env.ctx, 9999, validKYC())
	assertKind(t, err, KindNotFound)
}

func TestKYCReview(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "0")

	_, err := env.kyc.Review(env.ctx, KYCReviewInput{
		AdminID: env.adminUser.ID, UserID: user.ID, Status: models.KYCStatusVerified,
	})
	assertKind(t, err, KindInvalidInput)

	if _, err := env.kyc.Submit(env.ctx, user.ID, validKYC()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	_, err = env.kyc.Review(env.ctx, KYCReviewInput{
		AdminID: user.ID, UserID: user.ID, Status: models.KYCStatusVerified,
	})
	assertKind(t, err, KindForbidden)

	noUPI := false
	got, err := env.kyc.Review(env.ctx, KYCReviewInput{
		AdminID: env.adminUser.ID, UserID: user.ID, Status: models.KYCStatusVerified, VerifyUPI: &noUPI,
	})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if got.KYCStatus != models.KYCStatusVerified || !got.KYC.BankVerified || got.KYC.UPIVerified || got.KYC.VerifiedAt == nil {
		t.Errorf("unexpected verified state: %+v", got.KYC)
	}
	if !IsWithdrawalEligible(got) {
		t.Error("expected verified bank to make the user eligible")
	}

	// resubmitting puts the user back into review
	got, err = env.kyc.Submit(env.ctx, user.ID, validKYC())
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if IsWithdrawalEligible(got) {
		t.Error("resubmitted KYC must reset eligibility")
	}

	got, err = env.kyc.Review(env.ctx, KYCReviewInput{
		AdminID: env.adminUser.ID, UserID: user.ID, Status: models.KYCStatusRejected,
	})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if got.KYCStatus != models.KYCStatusRejected || got.KYC.RejectionReason != defaultKYCRejection {
		t.Errorf("unexpected rejected state: %s %q", got.KYCStatus, got.KYC.RejectionReason)
	}
}

func TestKYCListSubmissions(t *testing.T) {
	env := newTestEnv(t)
	first := env.createUser(t, "0")
	second := env.createUser(t, "0")
	env.createUser(t, "0")

	if _, err := env.kyc.Submit(env.ctx, first.ID, validKYC()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := env.kyc.Submit(env.ctx, second.ID, validKYC()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	env.verifyKYC(t, second.ID)

	pending, err := env.kyc.ListSubmissions(env.ctx, "", 50, 0)
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Errorf("expected only the first user pending, got %d users", len(pending))
	}

	verified, err := env.kyc.ListSubmissions(env.ctx, models.KYCStatusVerified, 50, 0)
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if len(verified) != 1 || verified[0].ID != second.ID {
		t.Errorf("expected the second user verified, got %d users", len(verified))
	}
}
