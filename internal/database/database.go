package database

import (
	"fmt"

	"github.com/blues/fsb/internal/config"
	"github.com/blues/fsb/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate 自动迁移，模式只增不减，升级时容忍旧库缺列
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Member{},
		&model.FallbackAccount{},
		&model.PaymentOrder{},
		&model.RechargeRecord{},
		&model.EarningsRecord{},
		&model.WithdrawRecord{},
		&model.SystemConfig{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
