package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jyothika2406/cricket-app/internal/config"
	"github.com/Jyothika2406/cricket-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const settingsRowID = 1

// SettingsService reads and writes the single admin settings row, falling
// back to configured defaults until an admin saves one.
type SettingsService struct {
	db       *gorm.DB
	admin    *AdminService
	defaults config.BettingConfig
}

func NewSettingsService(db *gorm.DB, admin *AdminService, defaults config.BettingConfig) *SettingsService {
	return &SettingsService{db: db, admin: admin, defaults: defaults}
}

// SettingsInput carries an admin's settings change. Nil fields are unchanged.
type SettingsInput struct {
	AdminUPIIDs  models.UPIAccounts `json:"admin_upi_ids"`
	MinBetAmount *decimal.Decimal   `json:"min_bet_amount"`
	MaxBetAmount *decimal.Decimal   `json:"max_bet_amount"`
}

func (s *SettingsService) Get(ctx context.Context) (*models.AdminSettings, error) {
	var settings models.AdminSettings
	err := s.db.WithContext(ctx).First(&settings, settingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.AdminSettings{
			ID:           settingsRowID,
			AdminUPIIDs:  models.UPIAccounts{{UPIID: s.defaults.DefaultAdminUPI, Name: "default", IsActive: true}},
			MinBetAmount: s.defaults.MinBet,
			MaxBetAmount: s.defaults.MaxBet,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

// BetLimits returns the current minimum and maximum stake
func (s *SettingsService) BetLimits(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return settings.MinBetAmount, settings.MaxBetAmount, nil
}

// DepositUPI returns the UPI id deposits should be paid to
func (s *SettingsService) DepositUPI(ctx context.Context) (string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	if acc, ok := settings.AdminUPIIDs.Active(); ok {
		return acc.UPIID, nil
	}
	return s.defaults.DefaultAdminUPI, nil
}

func (s *SettingsService) Update(ctx context.Context, adminID uint, in SettingsInput) (*models.AdminSettings, error) {
	if _, err := s.admin.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if in.AdminUPIIDs != nil {
		for i := range in.AdminUPIIDs {
			in.AdminUPIIDs[i].UPIID = strings.ToLower(strings.TrimSpace(in.AdminUPIIDs[i].UPIID))
			if !strings.Contains(in.AdminUPIIDs[i].UPIID, "@") {
				return nil, fmt.Errorf("%w: invalid UPI id %q", ErrInvalidInput, in.AdminUPIIDs[i].UPIID)
			}
		}
		settings.AdminUPIIDs = in.AdminUPIIDs
	}
	if in.MinBetAmount != nil {
		settings.MinBetAmount = *in.MinBetAmount
	}
	if in.MaxBetAmount != nil {
		settings.MaxBetAmount = *in.MaxBetAmount
	}
	if !settings.MinBetAmount.IsPositive() || settings.MaxBetAmount.LessThan(settings.MinBetAmount) {
		return nil, fmt.Errorf("%w: bet limits must satisfy 0 < min <= max", ErrInvalidAmount)
	}

	settings.ID = settingsRowID
	settings.UpdatedBy = &adminID
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.admin.LogAdminAction(ctx, adminID, "UPDATE_SETTINGS", "SETTINGS", fmt.Sprint(settingsRowID), map[string]interface{}{
		"min_bet_amount": settings.MinBetAmount.String(),
		"max_bet_amount": settings.MaxBetAmount.String(),
	})
	return settings, nil
}
