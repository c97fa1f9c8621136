package services

import (
	"bidexpert/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditService 状态变更审计（只写不读的落库接口）
// 所有状态变更和修复动作都在所属事务内同步写一条前后快照
type AuditService struct {
	db *gorm.DB
}

// NewAuditService 创建审计服务实例
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// RecordTx 在调用方事务内记录一条状态变更
func (s *AuditService) RecordTx(tx *gorm.DB, tenantID uint, entityType models.EntityType, entityID uint, action, oldStatus, newStatus, actor string) error {
	entry := &models.AuditLog{
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		Actor:      actor,
	}
	return tx.Create(entry).Error
}

// lockForUpdate 给查询加行级写锁
// sqlite（测试环境）没有行锁语法，依赖事务本身串行化
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
