package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jyothika2406/cricket-app/internal/auth"
	"github.com/Jyothika2406/cricket-app/internal/models"
	"github.com/Jyothika2406/cricket-app/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const referralCodeAttempts = 5

// AuthService handles registration, login and account credentials
type AuthService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, log *zap.Logger) *AuthService {
	return &AuthService{db: db, log: log.Named("auth")}
}

type RegisterInput struct {
	Name         string  `json:"name" binding:"required,min=2,max=100"`
	Email        string  `json:"email" binding:"required,email"`
	Phone        *string `json:"phone"`
	Password     string  `json:"password" binding:"required,min=6"`
	ReferralCode string  `json:"referral_code"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a user with a zero balance and issues a token.
// An unknown referral code is ignored.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: name, email and a password of 6+ characters are required", ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)

	var phone *string
	if in.Phone != nil && strings.TrimSpace(*in.Phone) != "" {
		p := strings.TrimSpace(*in.Phone)
		phone = &p
	}
	if err := s.checkTaken(ctx, email, phone); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:          name,
		Email:         email,
		Phone:         phone,
		PasswordHash:  string(hash),
		WalletBalance: decimal.Zero,
		Role:          models.RoleUser,
		KYCStatus:     models.KYCStatusNone,
	}

	if code := strings.ToUpper(strings.TrimSpace(in.ReferralCode)); code != "" {
		var referrer models.User
		if err := db.Select("id").Where("referral_code = ?", code).First(&referrer).Error; err == nil {
			user.ReferredBy = &referrer.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if err := s.createWithReferralCode(ctx, &user); err != nil {
		// a concurrent registration can win the unique index after the
		// check above passed
		if takenErr := s.checkTaken(ctx, email, phone); takenErr != nil {
			return nil, takenErr
		}
		return nil, err
	}

	token, err := auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID))
	return &AuthResult{User: &user, Token: token}, nil
}

func (s *AuthService) checkTaken(ctx context.Context, email string, phone *string) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	if phone == nil {
		return nil
	}
	if err := db.Model(&models.User{}).Where("phone = ?", *phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPhoneTaken
	}
	return nil
}

// createWithReferralCode retries on the rare referral code collision
func (s *AuthService) createWithReferralCode(ctx context.Context, user *models.User) error {
	var lastErr error
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return err
		}

		var taken int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("referral_code = ?", code).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			lastErr = fmt.Errorf("referral code collision")
			continue
		}

		user.ReferralCode = code
		if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	}
	return lastErr
}

// Login checks credentials and issues a token
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidLogin
	}

	token, err := auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.Uint("user_id", user.ID))
	return &AuthResult{User: &user, Token: token}, nil
}

type ProfileInput struct {
	Name  *string `json:"name" binding:"omitempty,min=2,max=100"`
	Phone *string `json:"phone" binding:"omitempty,phone"`
}

// UpdateProfile changes the name and phone. Nil fields are left alone and an
// empty phone clears it.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 {
			return nil, fmt.Errorf("%w: name must be at least 2 characters", ErrInvalidInput)
		}
		updates["name"] = name
	}
	var phone *string
	if in.Phone != nil {
		updates["phone"] = nil
		if p := strings.TrimSpace(*in.Phone); p != "" {
			if !utils.ValidatePhone(p) {
				return nil, fmt.Errorf("%w: invalid phone number", ErrInvalidInput)
			}
			phone = &p
			var count int64
			if err := db.Model(&models.User{}).Where("phone = ? AND id <> ?", p, userID).Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrPhoneTaken
			}
			updates["phone"] = p
		}
	}
	if len(updates) == 0 {
		return &user, nil
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		if phone != nil {
			var count int64
			if cerr := db.Model(&models.User{}).Where("phone = ? AND id <> ?", *phone, userID).Count(&count).Error; cerr == nil && count > 0 {
				return nil, ErrPhoneTaken
			}
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if err := db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if len(in.NewPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Select("id", "password_hash").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.log.Info("password changed", zap.Uint("user_id", userID))
	return nil
}
