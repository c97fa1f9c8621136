package database

import (
	"bidexpert/internal/models"
	"bidexpert/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		// 拍卖域
		&models.Auction{},
		&models.Lot{},
		&models.Asset{},
		&models.AssetLotLink{},
		// 审计与对账
		&models.AuditLog{},
		&models.ReconciliationRun{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
