package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jyothika2406/cricket-app/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdminService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAdminService(db *gorm.DB, log *zap.Logger) *AdminService {
	return &AdminService{
		db:  db,
		log: log.Named("admin"),
	}
}

// RequireAdmin re-reads the caller's role from the store. Roles are never
// trusted from the session token.
func (s *AdminService) RequireAdmin(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}

	var user models.User
	err := s.db.WithContext(ctx).Select("id", "email", "role").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return &user, nil
}

// LogAdminAction logs an admin action. A failed write is logged and dropped
// so it never masks the outcome of the action itself.
func (s *AdminService) LogAdminAction(ctx context.Context, adminID uint, action string, resourceType string,
	resourceID string, details map[string]interface{}) {

	adminLog := models.AdminLog{
		AdminID:      adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.JSONB(details),
	}

	if err := s.db.WithContext(ctx).Create(&adminLog).Error; err != nil {
		s.log.Warn("failed to write admin log",
			zap.Uint("admin_id", adminID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// GetAdminLogs returns admin activity logs
func (s *AdminService) GetAdminLogs(ctx context.Context, limit int, offset int) ([]models.AdminLog, error) {
	var logs []models.AdminLog
	if err := s.db.WithContext(ctx).
		Preload("Admin").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// GetPlatformStats computes the dashboard summary
func (s *AdminService) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	db := s.db.WithContext(ctx)
	stats := &models.PlatformStats{}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, db.Model(&models.User{})},
		{&stats.PendingKYC, db.Model(&models.User{}).Where("kyc_status = ?", models.KYCStatusPending)},
		{&stats.TotalMatches, db.Model(&models.Match{})},
		{&stats.LiveMatches, db.Model(&models.Match{}).Where("status = ?", models.MatchStatusLive)},
		{&stats.TotalBets, db.Model(&models.Bet{})},
		{&stats.PendingBets, db.Model(&models.Bet{}).Where("status = ?", models.BetStatusPending)},
		{&stats.PendingTransactions, db.Model(&models.Transaction{}).Where("status = ?", models.TransactionStatusPending)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}

	sums := []struct {
		dst   *decimal.Decimal
		query *gorm.DB
	}{
		{&stats.TotalDeposits, db.Model(&models.Transaction{}).
			Where("type = ? AND status = ?", models.TransactionTypeDeposit, models.TransactionStatusCompleted)},
		{&stats.TotalWithdrawals, db.Model(&models.Transaction{}).
			Where("type = ? AND status = ?", models.TransactionTypeWithdraw, models.TransactionStatusCompleted)},
	}
	for _, sm := range sums {
		total, err := sumColumn(sm.query, "amount")
		if err != nil {
			return nil, err
		}
		*sm.dst = total
	}

	total, err := sumColumn(db.Model(&models.User{}), "wallet_balance")
	if err != nil {
		return nil, err
	}
	stats.TotalWalletBalance = total

	return stats, nil
}

func sumColumn(query *gorm.DB, column string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := query.Select("SUM(" + column + ")").Row().Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s: %w", column, err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// GetAllUsers returns users matching search by name or email
func (s *AdminService) GetAllUsers(ctx context.Context, limit int, offset int, search string) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := s.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// UpdateUserRole promotes or demotes a user. Admins cannot demote themselves.
func (s *AdminService) UpdateUserRole(ctx context.Context, adminID, userID uint, role string) (*models.User, error) {
	if _, err := s.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: role must be user or admin", ErrInvalidInput)
	}
	if adminID == userID && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot demote yourself", ErrInvalidInput)
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("role", role)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	s.LogAdminAction(ctx, adminID, "UPDATE_ROLE", "USER", fmt.Sprint(userID), map[string]interface{}{
		"role": role,
	})
	s.log.Info("user role updated", zap.Uint("user_id", userID), zap.String("role", role))

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
