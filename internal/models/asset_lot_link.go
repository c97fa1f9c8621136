package models

import (
	"time"
)

// AssetLotLink 资产-标的关联（多对多连接表）
// 业务上同一资产同一时刻最多允许一条活跃关联（所在标的未结束）；
// 关联在unlink时删除，所在标的进入结束族状态时级联删除。
// 指向已结束标的的残留关联属于待修复的脏数据，由对账扫描兜底
type AssetLotLink struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	AssetID   uint      `gorm:"not null;index;uniqueIndex:idx_asset_lot" json:"asset_id"`
	LotID     uint      `gorm:"not null;index;uniqueIndex:idx_asset_lot" json:"lot_id"`
	CreatedBy uint      `json:"created_by"` // 执行挂接的操作人
	CreatedAt time.Time `json:"created_at"`

	// 关联
	Asset *Asset `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	Lot   *Lot   `gorm:"foreignKey:LotID" json:"lot,omitempty"`
}

// TableName 表名
func (l *AssetLotLink) TableName() string {
	return "asset_lot_links"
}
