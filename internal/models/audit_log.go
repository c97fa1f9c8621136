package models

import (
	"time"
)

// 审计动作常量
const (
	AuditActionTransition = "transition" // 人工发起的状态转换
	AuditActionLink       = "link"       // 资产挂接
	AuditActionUnlink     = "unlink"     // 资产摘除
	AuditActionCascade    = "cascade"    // 级联副作用（关闭拍卖会带动标的等）
	AuditActionRepair     = "repair"     // 对账修复动作
)

// AuditLog 状态变更审计日志（只写不读）
type AuditLog struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	TenantID   uint       `gorm:"not null;index" json:"tenant_id"`
	EntityType EntityType `gorm:"size:20;not null;index" json:"entity_type"`
	EntityID   uint       `gorm:"not null;index" json:"entity_id"`
	Action     string     `gorm:"size:20;not null" json:"action"`
	OldStatus  string     `gorm:"size:20" json:"old_status"`
	NewStatus  string     `gorm:"size:20" json:"new_status"`
	Actor      string     `gorm:"size:100" json:"actor"` // 操作人或"reconciler"
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName 表名
func (a *AuditLog) TableName() string {
	return "audit_logs"
}
