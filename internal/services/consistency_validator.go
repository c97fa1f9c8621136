package services

import (
	"bidexpert/internal/models"
	"bidexpert/internal/status"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationOpenAuctionWithDraftLot  ViolationType = "OpenAuctionWithDraftLot"  // 开放拍卖会下有草稿标的
	ViolationOpenLotWithClosedAuction ViolationType = "OpenLotWithClosedAuction" // 竞价中标的挂在已结束拍卖会下
	ViolationOpenLotWithoutAssets     ViolationType = "OpenLotWithoutAssets"     // 开放标的没有资产
	ViolationLottedAssetWithoutLink   ViolationType = "LottedAssetWithoutLink"   // 已入标的资产没有活跃关联
	ViolationAssetInLotNotLotted      ViolationType = "AssetInLotNotLotted"      // 有活跃关联的资产状态不是已入标的
)

// Violation 一条数据一致性违规
// 不是错误：以报告项的形式返回，永不中断扫描
type Violation struct {
	Type          ViolationType     `json:"type"`
	TenantID      uint              `json:"tenant_id"`
	EntityType    models.EntityType `json:"entity_type"`
	EntityID      uint              `json:"entity_id"`
	CurrentStatus string            `json:"current_status"`
	RelatedType   models.EntityType `json:"related_type,omitempty"`
	RelatedID     uint              `json:"related_id,omitempty"`
	RelatedStatus string            `json:"related_status,omitempty"`
	Message       string            `json:"message"`
	AutoFixable   bool              `json:"auto_fixable"`
	SuggestedFix  string            `json:"suggested_fix,omitempty"`
}

// ViolationReport 一次校验的完整结果
type ViolationReport struct {
	TenantID     uint                  `json:"tenant_id"`
	ScannedAt    time.Time             `json:"scanned_at"`
	Violations   []Violation           `json:"violations"`
	CountsByType map[ViolationType]int `json:"counts_by_type"`
}

// Clean 是否未发现任何违规
func (r *ViolationReport) Clean() bool {
	return len(r.Violations) == 0
}

func (r *ViolationReport) add(v Violation) {
	v.TenantID = r.TenantID
	r.Violations = append(r.Violations, v)
	r.CountsByType[v.Type]++
}

// ConsistencyValidator 跨实体一致性校验器
// 只读、无副作用，可以任意频率执行；
// 交互路径（守卫）和批处理路径（对账）依据的都是 status 包里的同一套规则
type ConsistencyValidator struct {
	db *gorm.DB
}

// NewConsistencyValidator 创建校验器实例
func NewConsistencyValidator(db *gorm.DB) *ConsistencyValidator {
	return &ConsistencyValidator{db: db}
}

// ValidateTenant 对租户全量数据执行五项检查，累积返回所有违规
func (v *ConsistencyValidator) ValidateTenant(tenantID uint) (*ViolationReport, error) {
	report := v.newReport(tenantID)

	if err := v.checkOpenAuctionsWithDraftLots(tenantID, 0, report); err != nil {
		return nil, err
	}
	if err := v.checkOpenLotsUnderClosedAuctions(tenantID, 0, report); err != nil {
		return nil, err
	}
	if err := v.checkOpenLotsWithoutAssets(tenantID, 0, report); err != nil {
		return nil, err
	}
	if err := v.checkLottedAssetsWithoutLinks(tenantID, 0, report); err != nil {
		return nil, err
	}
	if err := v.checkLinkedAssetsNotLotted(tenantID, 0, report); err != nil {
		return nil, err
	}

	return report, nil
}

// ValidateEntity 对单个实体执行与其相关的检查
func (v *ConsistencyValidator) ValidateEntity(tenantID uint, entityType models.EntityType, entityID uint) (*ViolationReport, error) {
	report := v.newReport(tenantID)

	switch entityType {
	case models.EntityTypeAuction:
		if err := v.checkOpenAuctionsWithDraftLots(tenantID, entityID, report); err != nil {
			return nil, err
		}
	case models.EntityTypeLot:
		if err := v.checkOpenLotsUnderClosedAuctions(tenantID, entityID, report); err != nil {
			return nil, err
		}
		if err := v.checkOpenLotsWithoutAssets(tenantID, entityID, report); err != nil {
			return nil, err
		}
	case models.EntityTypeAsset:
		if err := v.checkLottedAssetsWithoutLinks(tenantID, entityID, report); err != nil {
			return nil, err
		}
		if err := v.checkLinkedAssetsNotLotted(tenantID, entityID, report); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("未知实体类型 %s", entityType)
	}

	return report, nil
}

func (v *ConsistencyValidator) newReport(tenantID uint) *ViolationReport {
	return &ViolationReport{
		TenantID:     tenantID,
		ScannedAt:    time.Now(),
		Violations:   []Violation{},
		CountsByType: map[ViolationType]int{},
	}
}

// 检查1：开放族拍卖会引用草稿族标的
func (v *ConsistencyValidator) checkOpenAuctionsWithDraftLots(tenantID, auctionID uint, report *ViolationReport) error {
	query := v.db.Where("tenant_id = ?", tenantID)
	if auctionID > 0 {
		query = query.Where("id = ?", auctionID)
	}

	var auctions []models.Auction
	if err := query.Preload("Lots").Find(&auctions).Error; err != nil {
		return err
	}

	for _, auction := range auctions {
		if !status.IsOpenFamily(models.EntityTypeAuction, string(auction.Status)) {
			continue
		}
		for _, lot := range auction.Lots {
			if status.IsDraftFamily(models.EntityTypeLot, string(lot.Status)) {
				report.add(Violation{
					Type:          ViolationOpenAuctionWithDraftLot,
					EntityType:    models.EntityTypeAuction,
					EntityID:      auction.ID,
					CurrentStatus: string(auction.Status),
					RelatedType:   models.EntityTypeLot,
					RelatedID:     lot.ID,
					RelatedStatus: string(lot.Status),
					Message:       fmt.Sprintf("开放中的拍卖会 %d 下存在草稿状态的标的 %d", auction.ID, lot.ID),
					AutoFixable:   true,
					SuggestedFix:  fmt.Sprintf("拍卖会回退为 %s", models.AuctionStatusInPreparation),
				})
			}
		}
	}
	return nil
}

// 检查2：竞价中的标的挂在结束族拍卖会下
func (v *ConsistencyValidator) checkOpenLotsUnderClosedAuctions(tenantID, lotID uint, report *ViolationReport) error {
	query := v.db.Where("tenant_id = ? AND status = ?", tenantID, models.LotStatusOpenForBids)
	if lotID > 0 {
		query = query.Where("id = ?", lotID)
	}

	var lots []models.Lot
	if err := query.Preload("Auction").Find(&lots).Error; err != nil {
		return err
	}

	for _, lot := range lots {
		if lot.Auction == nil {
			continue
		}
		if status.IsClosedFamily(models.EntityTypeAuction, string(lot.Auction.Status)) {
			report.add(Violation{
				Type:          ViolationOpenLotWithClosedAuction,
				EntityType:    models.EntityTypeLot,
				EntityID:      lot.ID,
				CurrentStatus: string(lot.Status),
				RelatedType:   models.EntityTypeAuction,
				RelatedID:     lot.AuctionID,
				RelatedStatus: string(lot.Auction.Status),
				Message:       fmt.Sprintf("标的 %d 仍在竞价中，但所属拍卖会 %d 已结束", lot.ID, lot.AuctionID),
				AutoFixable:   true,
				SuggestedFix:  fmt.Sprintf("标的强制转为 %s", models.LotStatusClosed),
			})
		}
	}
	return nil
}

// 检查3：开放族标的没有挂接任何资产
func (v *ConsistencyValidator) checkOpenLotsWithoutAssets(tenantID, lotID uint, report *ViolationReport) error {
	query := v.db.Where("tenant_id = ? AND status IN ?", tenantID,
		[]models.LotStatus{models.LotStatusComingSoon, models.LotStatusOpenForBids})
	if lotID > 0 {
		query = query.Where("id = ?", lotID)
	}

	var lots []models.Lot
	if err := query.Find(&lots).Error; err != nil {
		return err
	}

	for _, lot := range lots {
		var linkCount int64
		err := v.db.Model(&models.AssetLotLink{}).
			Where("lot_id = ? AND tenant_id = ?", lot.ID, tenantID).
			Count(&linkCount).Error
		if err != nil {
			return err
		}
		if linkCount == 0 {
			report.add(Violation{
				Type:          ViolationOpenLotWithoutAssets,
				EntityType:    models.EntityTypeLot,
				EntityID:      lot.ID,
				CurrentStatus: string(lot.Status),
				Message:       fmt.Sprintf("标的 %d 处于 %s 状态但未挂接任何资产", lot.ID, lot.Status),
				AutoFixable:   true,
				SuggestedFix:  fmt.Sprintf("标的回退为 %s", models.LotStatusDraft),
			})
		}
	}
	return nil
}

// 检查4：状态为已入标的的资产没有活跃关联
func (v *ConsistencyValidator) checkLottedAssetsWithoutLinks(tenantID, assetID uint, report *ViolationReport) error {
	query := v.db.Where("tenant_id = ? AND status = ?", tenantID, models.AssetStatusLotted)
	if assetID > 0 {
		query = query.Where("id = ?", assetID)
	}

	var assets []models.Asset
	if err := query.Find(&assets).Error; err != nil {
		return err
	}

	for _, asset := range assets {
		active, err := v.countActiveLinks(tenantID, asset.ID)
		if err != nil {
			return err
		}
		if active == 0 {
			report.add(Violation{
				Type:          ViolationLottedAssetWithoutLink,
				EntityType:    models.EntityTypeAsset,
				EntityID:      asset.ID,
				CurrentStatus: string(asset.Status),
				Message:       fmt.Sprintf("资产 %d 状态为已入标的，但没有任何活跃关联", asset.ID),
				AutoFixable:   true,
				SuggestedFix:  fmt.Sprintf("资产回退为 %s", models.AssetStatusAvailable),
			})
		}
	}
	return nil
}

// 检查5：存在活跃关联的资产状态不是已入标的（终态豁免）
func (v *ConsistencyValidator) checkLinkedAssetsNotLotted(tenantID, assetID uint, report *ViolationReport) error {
	query := v.db.Where("tenant_id = ?", tenantID)
	if assetID > 0 {
		query = query.Where("asset_id = ?", assetID)
	}

	var links []models.AssetLotLink
	if err := query.Preload("Lot").Preload("Asset").Find(&links).Error; err != nil {
		return err
	}

	for _, link := range links {
		if link.Lot == nil || link.Asset == nil {
			continue
		}
		if status.IsClosedFamily(models.EntityTypeLot, string(link.Lot.Status)) {
			continue
		}
		if link.Asset.Status == models.AssetStatusLotted || link.Asset.Status.IsTerminal() {
			continue
		}
		report.add(Violation{
			Type:          ViolationAssetInLotNotLotted,
			EntityType:    models.EntityTypeAsset,
			EntityID:      link.AssetID,
			CurrentStatus: string(link.Asset.Status),
			RelatedType:   models.EntityTypeLot,
			RelatedID:     link.LotID,
			RelatedStatus: string(link.Lot.Status),
			Message:       fmt.Sprintf("资产 %d 挂接在未结束的标的 %d 上，但状态为 %s", link.AssetID, link.LotID, link.Asset.Status),
			AutoFixable:   true,
			SuggestedFix:  fmt.Sprintf("资产强制转为 %s", models.AssetStatusLotted),
		})
	}
	return nil
}

// countActiveLinks 统计资产的活跃关联数（所在标的不属于结束族）
func (v *ConsistencyValidator) countActiveLinks(tenantID, assetID uint) (int, error) {
	var links []models.AssetLotLink
	err := v.db.Preload("Lot").
		Where("asset_id = ? AND tenant_id = ?", assetID, tenantID).
		Find(&links).Error
	if err != nil {
		return 0, err
	}

	active := 0
	for _, link := range links {
		if link.Lot != nil && !status.IsClosedFamily(models.EntityTypeLot, string(link.Lot.Status)) {
			active++
		}
	}
	return active, nil
}
