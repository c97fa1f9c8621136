package main

import (
	"bidexpert/internal/database"
	"bidexpert/internal/models"
	"bidexpert/internal/services"
	"bidexpert/pkg/logger"
	"fmt"

	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	// 1. 创建默认租户
	tenantID, err := createDefaultTenant(db)
	if err != nil {
		return fmt.Errorf("创建默认租户失败: %v", err)
	}

	// 2. 创建默认管理员用户
	if err := createDefaultAdmin(db, tenantID); err != nil {
		return fmt.Errorf("创建默认管理员失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createDefaultTenant 创建默认租户
func createDefaultTenant(db *gorm.DB) (uint, error) {
	var existing models.Tenant
	err := db.Where("code = ?", "default").First(&existing).Error
	if err == nil {
		logger.GetLogger().Info("默认租户已存在，跳过创建")
		return existing.ID, nil
	}

	tenant := &models.Tenant{
		Name:   "默认租户",
		Code:   "default",
		Status: models.TenantStatusActive,
	}
	if err := db.Create(tenant).Error; err != nil {
		return 0, err
	}
	return tenant.ID, nil
}

// createDefaultAdmin 创建默认管理员用户
func createDefaultAdmin(db *gorm.DB, tenantID uint) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("默认管理员已存在，跳过创建")
		return nil
	}

	admin := &models.User{
		TenantID:        tenantID,
		Username:        "admin",
		Email:           "admin@bidexpert.local",
		Name:            "平台管理员",
		IsPlatformAdmin: true,
	}
	return services.NewUserService(db).Create(admin, "admin123")
}
