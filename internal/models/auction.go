package models

import (
	"time"
)

// AuctionStatus 拍卖会状态
type AuctionStatus string

const (
	AuctionStatusDraft         AuctionStatus = "draft"          // 草稿
	AuctionStatusInPreparation AuctionStatus = "in_preparation" // 筹备中
	AuctionStatusOpen          AuctionStatus = "open"           // 已公开
	AuctionStatusOpenForBids   AuctionStatus = "open_for_bids"  // 竞价中
	AuctionStatusClosed        AuctionStatus = "closed"         // 已结束
	AuctionStatusFinalized     AuctionStatus = "finalized"      // 已结算
	AuctionStatusCancelled     AuctionStatus = "cancelled"      // 已取消
	AuctionStatusSuspended     AuctionStatus = "suspended"      // 已中止
)

// Auction 拍卖会模型
type Auction struct {
	BaseModel
	TenantID uint `gorm:"not null;index" json:"tenant_id"`

	Code        string        `gorm:"size:50;not null;uniqueIndex:idx_tenant_auction" json:"code"`
	Title       string        `gorm:"size:200;not null" json:"title"`
	Description string        `gorm:"size:1000" json:"description"`
	Status      AuctionStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`

	// 计划时间
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`

	// 审计字段
	CreatedBy uint `json:"created_by"`
	UpdatedBy uint `json:"updated_by"`

	// 关联
	Lots []Lot `gorm:"foreignKey:AuctionID" json:"lots,omitempty"`
}

// TableName 表名
func (a *Auction) TableName() string {
	return "auctions"
}
