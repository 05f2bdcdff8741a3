package main

import (
	"errors"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Jyothika2406/cricket-app/internal/config"
	"github.com/Jyothika2406/cricket-app/internal/database"
	"github.com/Jyothika2406/cricket-app/internal/logger"
	"github.com/Jyothika2406/cricket-app/internal/models"
	"github.com/Jyothika2406/cricket-app/internal/utils"
)

// Migrates the schema and seeds the admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD when both are set.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New("cricket-migrate", cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(cfg.GetDSN(), lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.AutoMigrate(db, lg); err != nil {
		lg.Fatal("failed to run migrations", zap.Error(err))
	}

	if cfg.App.AdminEmail == "" || cfg.App.AdminPassword == "" {
		lg.Info("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	if err := seedAdmin(db, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
		lg.Fatal("failed to seed admin", zap.Error(err))
	}
	lg.Info("admin account ready", zap.String("email", cfg.App.AdminEmail))
}

func seedAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return db.Model(&existing).Update("role", models.RoleAdmin).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	code, err := utils.GenerateReferralCode()
	if err != nil {
		return err
	}

	return db.Create(&models.User{
		Name:          "Admin",
		Email:         email,
		PasswordHash:  string(hash),
		WalletBalance: decimal.Zero,
		Role:          models.RoleAdmin,
		KYCStatus:     models.KYCStatusNone,
		ReferralCode:  code,
	}).Error
}
