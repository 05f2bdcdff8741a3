package database

import (
	"fmt"
	"time"

	"github.com/Jyothika2406/cricket-app/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the PostgreSQL database and sizes its connection pool
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connection established")
	return db, nil
}

// Models lists every table in migration order
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.LedgerEntry{},
		&models.Match{},
		&models.Question{},
		&models.Option{},
		&models.Bet{},
		&models.Transaction{},
		&models.AdminLog{},
		&models.AdminSettings{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}

	log.Info("database migrations completed")
	return nil
}
