package models

import (
	"time"

	"gorm.io/datatypes"
)

// 扫描模式常量
const (
	ScanModeDryRun = "dry_run" // 只检测不修复
	ScanModeFix    = "fix"     // 检测并应用自动修复
)

// 扫描结果状态常量
const (
	ScanStatusClean     = "clean"     // 未发现违规
	ScanStatusFixed     = "fixed"     // 发现违规且全部修复
	ScanStatusRemaining = "remaining" // 仍有违规（不可自动修复或修复失败）
	ScanStatusFailed    = "failed"    // 扫描本身执行失败
)

// ReconciliationRun 一次对账扫描的持久化记录
type ReconciliationRun struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	RunID      string         `gorm:"size:36;not null;uniqueIndex" json:"run_id"` // UUID
	TenantID   uint           `gorm:"not null;index" json:"tenant_id"`
	Mode       string         `gorm:"size:20;not null" json:"mode"`
	Status     string         `gorm:"size:20;not null" json:"status"`
	Passes     int            `json:"passes"` // 修复模式下实际执行的扫描轮数
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at"`

	// 统计
	ViolationCount int `json:"violation_count"`
	FixableCount   int `json:"fixable_count"`
	RepairsApplied int `json:"repairs_applied"`
	RepairFailures int `json:"repair_failures"`

	// 明细（违规列表与修复结果，JSON存储）
	Violations datatypes.JSON `gorm:"type:json" json:"violations"`
	Repairs    datatypes.JSON `gorm:"type:json" json:"repairs"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName 表名
func (r *ReconciliationRun) TableName() string {
	return "reconciliation_runs"
}
