package models

// AssetStatus 资产状态
type AssetStatus string

const (
	AssetStatusAvailable AssetStatus = "available" // 可上拍
	AssetStatusLotted    AssetStatus = "lotted"    // 已入标的
	AssetStatusSold      AssetStatus = "sold"      // 已售出（终态）
	AssetStatusRemoved   AssetStatus = "removed"   // 已下架（终态）
)

// Asset 资产模型，由库存流程独立创建，通过关联关系挂入标的
type Asset struct {
	BaseModel
	TenantID uint `gorm:"not null;index" json:"tenant_id"`

	Code        string      `gorm:"size:50;not null;uniqueIndex:idx_tenant_asset" json:"code"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"size:1000" json:"description"`
	Status      AssetStatus `gorm:"size:20;not null;default:'available';index" json:"status"`

	// 审计字段
	CreatedBy uint `json:"created_by"`
	UpdatedBy uint `json:"updated_by"`

	// 关联
	Links []AssetLotLink `gorm:"foreignKey:AssetID" json:"links,omitempty"`
}

// TableName 表名
func (a *Asset) TableName() string {
	return "assets"
}

// IsTerminal 资产是否处于终态（终态资产不参与一致性联动）
func (s AssetStatus) IsTerminal() bool {
	return s == AssetStatusSold || s == AssetStatusRemoved
}
