package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jyothika2406/cricket-app/internal/models"
	"github.com/Jyothika2406/cricket-app/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultKYCRejection = "Verification failed"

// KYCService handles identity submissions and their admin review. The rest
// of the system only consumes IsWithdrawalEligible.
type KYCService struct {
	db    *gorm.DB
	admin *AdminService
	log   *zap.Logger
	now   func() time.Time
}

func NewKYCService(db *gorm.DB, admin *AdminService, log *zap.Logger) *KYCService {
	return &KYCService{
		db:    db,
		admin: admin,
		log:   log.Named("kyc"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type KYCInput struct {
	FullName          string `json:"full_name" binding:"required"`
	PANNumber         string `json:"pan" binding:"required"`
	AadhaarNumber     string `json:"aadhaar" binding:"required"`
	BankAccountNumber string `json:"bank_account"`
	IFSCCode          string `json:"ifsc"`
	BankName          string `json:"bank_name"`
	UPIID             string `json:"upi_id"`
}

type KYCReviewInput struct {
	AdminID    uint   `json:"-"`
	UserID     uint   `json:"-"`
	Status     string `json:"status" binding:"required,oneof=verified rejected"`
	Reason     string `json:"reason"`
	VerifyBank *bool  `json:"verify_bank"`
	VerifyUPI  *bool  `json:"verify_upi"`
}

// IsWithdrawalEligible reports whether the user passed KYC with at least
// one verified payout destination
func IsWithdrawalEligible(u *models.User) bool {
	return u.KYCStatus == models.KYCStatusVerified && (u.KYC.BankVerified || u.KYC.UPIVerified)
}

// Submit stores a KYC submission and puts it into review. Resubmitting
// resets both verification flags.
func (s *KYCService) Submit(ctx context.Context, userID uint, in KYCInput) (*models.User, error) {
	kyc := models.KYCData{
		FullName:      strings.TrimSpace(in.FullName),
		PANNumber:     strings.ToUpper(strings.TrimSpace(in.PANNumber)),
		AadhaarNumber: strings.TrimSpace(in.AadhaarNumber),
	}
	if kyc.FullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if !utils.ValidatePAN(kyc.PANNumber) {
		return nil, fmt.Errorf("%w: invalid PAN", ErrInvalidInput)
	}
	if !utils.ValidateAadhaar(kyc.AadhaarNumber) {
		return nil, fmt.Errorf("%w: invalid Aadhaar number", ErrInvalidInput)
	}

	account := strings.TrimSpace(in.BankAccountNumber)
	ifsc := strings.ToUpper(strings.TrimSpace(in.IFSCCode))
	upi := strings.ToLower(strings.TrimSpace(in.UPIID))
	hasBank := account != "" && ifsc != ""
	if !hasBank && upi == "" {
		return nil, fmt.Errorf("%w: provide a bank account or a UPI id for withdrawals", ErrInvalidInput)
	}
	if hasBank {
		if !utils.ValidateIFSC(ifsc) {
			return nil, fmt.Errorf("%w: invalid IFSC", ErrInvalidInput)
		}
		kyc.BankAccountNumber = account
		kyc.IFSCCode = ifsc
		kyc.BankName = strings.TrimSpace(in.BankName)
	}
	if upi != "" {
		if !utils.ValidateUPI(upi) {
			return nil, fmt.Errorf("%w: invalid UPI id", ErrInvalidInput)
		}
		kyc.UPIID = upi
	}

	now := s.now()
	kyc.SubmittedAt = &now

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"kyc_status":              models.KYCStatusPending,
			"kyc_full_name":           kyc.FullName,
			"kyc_pan_number":          kyc.PANNumber,
			"kyc_aadhaar_number":      kyc.AadhaarNumber,
			"kyc_bank_account_number": kyc.BankAccountNumber,
			"kyc_ifsc_code":           kyc.IFSCCode,
			"kyc_bank_name":           kyc.BankName,
			"kyc_upi_id":              kyc.UPIID,
			"kyc_bank_verified":       false,
			"kyc_upi_verified":        false,
			"kyc_submitted_at":        kyc.SubmittedAt,
			"kyc_verified_at":         nil,
			"kyc_rejection_reason":    "",
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to submit KYC: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	s.log.Info("kyc submitted", zap.Uint("user_id", userID))
	return s.GetStatus(ctx, userID)
}

// GetStatus returns the user with their KYC data
func (s *KYCService) GetStatus(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Review verifies or rejects a pending submission. Verification marks each
// submitted destination verified unless the admin opts it out.
func (s *KYCService) Review(ctx context.Context, in KYCReviewInput) (*models.User, error) {
	if _, err := s.admin.RequireAdmin(ctx, in.AdminID); err != nil {
		return nil, err
	}
	if in.Status != models.KYCStatusVerified && in.Status != models.KYCStatusRejected {
		return nil, fmt.Errorf("%w: status must be verified or rejected", ErrInvalidInput)
	}

	user, err := s.GetStatus(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.KYCStatus == models.KYCStatusNone {
		return nil, fmt.Errorf("%w: user has not submitted KYC", ErrInvalidInput)
	}

	updates := map[string]interface{}{"kyc_status": in.Status}
	if in.Status == models.KYCStatusVerified {
		now := s.now()
		updates["kyc_verified_at"] = &now
		updates["kyc_rejection_reason"] = ""
		updates["kyc_bank_verified"] = user.KYC.HasBank() && (in.VerifyBank == nil || *in.VerifyBank)
		updates["kyc_upi_verified"] = user.KYC.HasUPI() && (in.VerifyUPI == nil || *in.VerifyUPI)
	} else {
		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			reason = defaultKYCRejection
		}
		updates["kyc_rejection_reason"] = reason
		updates["kyc_bank_verified"] = false
		updates["kyc_upi_verified"] = false
	}

	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", in.UserID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to review KYC: %w", err)
	}

	s.admin.LogAdminAction(ctx, in.AdminID, "REVIEW_KYC", "USER", fmt.Sprint(in.UserID), map[string]interface{}{
		"status": in.Status,
		"reason": in.Reason,
	})
	s.log.Info("kyc reviewed", zap.Uint("user_id", in.UserID), zap.String("status", in.Status))
	return s.GetStatus(ctx, in.UserID)
}

// ListSubmissions returns users in the given KYC state, oldest submission first
func (s *KYCService) ListSubmissions(ctx context.Context, status string, limit, offset int) ([]models.User, error) {
	if status == "" {
		status = models.KYCStatusPending
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("kyc_status = ?", status).
		Order("kyc_submitted_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list KYC submissions: %w", err)
	}
	return users, nil
}
