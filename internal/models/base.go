package models

import (
	"time"
)

// BaseModel 基础模型
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityType 生命周期引擎管理的实体类型
type EntityType string

const (
	EntityTypeAuction EntityType = "auction" // 拍卖会
	EntityTypeLot     EntityType = "lot"     // 标的
	EntityTypeAsset   EntityType = "asset"   // 资产
)
