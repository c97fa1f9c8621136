package models

// LotStatus 标的状态
type LotStatus string

const (
	LotStatusDraft       LotStatus = "draft"         // 草稿
	LotStatusComingSoon  LotStatus = "coming_soon"   // 即将开拍
	LotStatusOpenForBids LotStatus = "open_for_bids" // 竞价中
	LotStatusClosed      LotStatus = "closed"        // 已结束
	LotStatusSold        LotStatus = "sold"          // 已成交
	LotStatusUnsold      LotStatus = "unsold"        // 流拍
	LotStatusCancelled   LotStatus = "cancelled"     // 已取消
	LotStatusWithdrawn   LotStatus = "withdrawn"     // 已撤回
)

// Lot 标的模型，归属于一场拍卖会
type Lot struct {
	BaseModel
	TenantID  uint `gorm:"not null;index" json:"tenant_id"`
	AuctionID uint `gorm:"not null;index" json:"auction_id"`

	Number      int       `gorm:"not null" json:"number"` // 标的号，在拍卖会内唯一
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"size:1000" json:"description"`
	Status      LotStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`

	// 审计字段
	CreatedBy uint `json:"created_by"`
	UpdatedBy uint `json:"updated_by"`

	// 关联
	Auction *Auction       `gorm:"foreignKey:AuctionID" json:"auction,omitempty"`
	Links   []AssetLotLink `gorm:"foreignKey:LotID" json:"links,omitempty"`
}

// TableName 表名
func (l *Lot) TableName() string {
	return "lots"
}
