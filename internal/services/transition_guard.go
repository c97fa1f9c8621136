package services

import (
	"bidexpert/internal/models"
	"bidexpert/internal/status"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 拒绝原因代码，调用方据此分支处理
const (
	RejectUnknownStatus     = "unknown_status"      // 目标状态不在该实体的状态集合内
	RejectIllegalTransition = "illegal_transition"  // 目标状态不在当前状态的合法转换集内
	RejectLotsStillDraft    = "lots_still_draft"    // 拍卖会下仍有草稿族标的
	RejectAuctionNotOpen    = "auction_not_open"    // 父拍卖会不在开放族
	RejectLotWithoutAssets  = "lot_without_assets"  // 标的没有挂接任何资产
	RejectAuctionClosed     = "auction_closed"      // 父拍卖会已结束，标的不可再变更
	RejectAssetTerminal     = "asset_terminal"      // 资产处于终态
	RejectAssetLinkedActive = "asset_linked_active" // 资产仍被未结束的标的引用
	RejectAssetAlreadyInLot = "asset_already_in_lot" // 资产已挂接在其他未结束标的上
)

// RejectedEntity 触发拒绝的具体实体
type RejectedEntity struct {
	Type   models.EntityType `json:"type"`
	ID     uint              `json:"id"`
	Status string            `json:"status"`
}

// Rejection 转换被拒绝的结构化原因
// 以值的形式返回给调用方，不作为Go error抛出；基础设施故障才走error通道
type Rejection struct {
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Entities []RejectedEntity `json:"entities,omitempty"` // 触发拒绝的相关实体
}

// TransitionGuard 状态转换守卫
// 纯校验，不做任何写操作；调用方在同一事务内先Authorize再落库，
// 避免检查和写入之间被并发写者打破前置条件
type TransitionGuard struct {
	db *gorm.DB
}

// NewTransitionGuard 创建转换守卫实例
func NewTransitionGuard(db *gorm.DB) *TransitionGuard {
	return &TransitionGuard{db: db}
}

// Authorize 校验一次状态转换请求
// 返回 (nil, nil) 表示放行；(*Rejection, nil) 表示业务拒绝；error 表示存储故障
func (g *TransitionGuard) Authorize(tx *gorm.DB, tenantID uint, entityType models.EntityType, entityID uint, requested string) (*Rejection, error) {
	if tx == nil {
		tx = g.db
	}

	if !status.IsValid(entityType, requested) {
		return &Rejection{
			Code:    RejectUnknownStatus,
			Message: fmt.Sprintf("未知状态 %s", requested),
		}, nil
	}

	switch entityType {
	case models.EntityTypeAuction:
		return g.authorizeAuction(tx, tenantID, entityID, models.AuctionStatus(requested))
	case models.EntityTypeLot:
		return g.authorizeLot(tx, tenantID, entityID, models.LotStatus(requested))
	case models.EntityTypeAsset:
		return g.authorizeAsset(tx, tenantID, entityID, models.AssetStatus(requested))
	}
	return nil, fmt.Errorf("未知实体类型 %s", entityType)
}

// authorizeAuction 拍卖会状态转换校验
func (g *TransitionGuard) authorizeAuction(tx *gorm.DB, tenantID, auctionID uint, requested models.AuctionStatus) (*Rejection, error) {
	var auction models.Auction
	err := tx.Where("id = ? AND tenant_id = ?", auctionID, tenantID).First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("拍卖会不存在")
		}
		return nil, err
	}

	if rej := g.checkGraph(models.EntityTypeAuction, string(auction.Status), string(requested)); rej != nil {
		return rej, nil
	}

	// 进入开放族前，不允许存在草稿族标的
	if status.IsOpenFamily(models.EntityTypeAuction, string(requested)) {
		var draftLots []models.Lot
		err := tx.Where("auction_id = ? AND tenant_id = ?", auctionID, tenantID).
			Find(&draftLots).Error
		if err != nil {
			return nil, err
		}

		var offending []RejectedEntity
		for _, lot := range draftLots {
			if status.IsDraftFamily(models.EntityTypeLot, string(lot.Status)) {
				offending = append(offending, RejectedEntity{
					Type:   models.EntityTypeLot,
					ID:     lot.ID,
					Status: string(lot.Status),
				})
			}
		}
		if len(offending) > 0 {
			return &Rejection{
				Code:     RejectLotsStillDraft,
				Message:  fmt.Sprintf("%d 个标的仍处于草稿状态，拍卖会无法公开", len(offending)),
				Entities: offending,
			}, nil
		}
	}

	return nil, nil
}

// authorizeLot 标的状态转换校验
func (g *TransitionGuard) authorizeLot(tx *gorm.DB, tenantID, lotID uint, requested models.LotStatus) (*Rejection, error) {
	var lot models.Lot
	err := tx.Where("id = ? AND tenant_id = ?", lotID, tenantID).First(&lot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("标的不存在")
		}
		return nil, err
	}

	// 状态转换也是一种变更，父拍卖会已结束时一律拒绝
	rej, auction, err := g.checkParentAuction(tx, &lot)
	if err != nil {
		return nil, err
	}
	if rej != nil {
		return rej, nil
	}

	if rej := g.checkGraph(models.EntityTypeLot, string(lot.Status), string(requested)); rej != nil {
		return rej, nil
	}

	// 开始竞价前置条件：父拍卖会开放中，且至少挂接一项资产
	if requested == models.LotStatusOpenForBids {
		if !status.IsOpenFamily(models.EntityTypeAuction, string(auction.Status)) {
			return &Rejection{
				Code:    RejectAuctionNotOpen,
				Message: fmt.Sprintf("父拍卖会未公开（当前状态 %s），标的无法开始竞价", auction.Status),
				Entities: []RejectedEntity{{
					Type:   models.EntityTypeAuction,
					ID:     auction.ID,
					Status: string(auction.Status),
				}},
			}, nil
		}

		var linkCount int64
		err := tx.Model(&models.AssetLotLink{}).
			Where("lot_id = ? AND tenant_id = ?", lotID, tenantID).
			Count(&linkCount).Error
		if err != nil {
			return nil, err
		}
		if linkCount == 0 {
			return &Rejection{
				Code:    RejectLotWithoutAssets,
				Message: "标的未挂接任何资产，无法开始竞价",
			}, nil
		}
	}

	return nil, nil
}

// authorizeAsset 资产状态转换校验
func (g *TransitionGuard) authorizeAsset(tx *gorm.DB, tenantID, assetID uint, requested models.AssetStatus) (*Rejection, error) {
	var asset models.Asset
	err := tx.Where("id = ? AND tenant_id = ?", assetID, tenantID).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("资产不存在")
		}
		return nil, err
	}

	if rej := g.checkGraph(models.EntityTypeAsset, string(asset.Status), string(requested)); rej != nil {
		return rej, nil
	}
	return nil, nil
}

// AuthorizeLotMutation 校验标的是否允许任何形式的变更
// 父拍卖会进入结束族后，标的从此冻结（状态转换之外的字段修改也适用）
func (g *TransitionGuard) AuthorizeLotMutation(tx *gorm.DB, tenantID, lotID uint) (*Rejection, error) {
	if tx == nil {
		tx = g.db
	}

	var lot models.Lot
	err := tx.Where("id = ? AND tenant_id = ?", lotID, tenantID).First(&lot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("标的不存在")
		}
		return nil, err
	}

	rej, _, err := g.checkParentAuction(tx, &lot)
	return rej, err
}

// AuthorizeAssetDelete 校验资产删除前置条件
// 仍被未结束标的引用、或状态为已入标的的资产不允许删除
func (g *TransitionGuard) AuthorizeAssetDelete(tx *gorm.DB, tenantID, assetID uint) (*Rejection, error) {
	if tx == nil {
		tx = g.db
	}

	var asset models.Asset
	err := tx.Where("id = ? AND tenant_id = ?", assetID, tenantID).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("资产不存在")
		}
		return nil, err
	}

	var links []models.AssetLotLink
	err = tx.Preload("Lot").
		Where("asset_id = ? AND tenant_id = ?", assetID, tenantID).
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	var offending []RejectedEntity
	for _, link := range links {
		if link.Lot != nil && !status.IsClosedFamily(models.EntityTypeLot, string(link.Lot.Status)) {
			offending = append(offending, RejectedEntity{
				Type:   models.EntityTypeLot,
				ID:     link.LotID,
				Status: string(link.Lot.Status),
			})
		}
	}
	if len(offending) > 0 {
		return &Rejection{
			Code:     RejectAssetLinkedActive,
			Message:  fmt.Sprintf("资产仍被 %d 个未结束的标的引用，无法删除", len(offending)),
			Entities: offending,
		}, nil
	}

	if asset.Status == models.AssetStatusLotted {
		return &Rejection{
			Code:    RejectAssetLinkedActive,
			Message: "资产状态为已入标的，无法删除",
		}, nil
	}

	return nil, nil
}

// checkGraph 检查 from -> to 是否为转换图中的合法边
func (g *TransitionGuard) checkGraph(entityType models.EntityType, from, to string) *Rejection {
	if !status.CanTransition(entityType, from, to) {
		return &Rejection{
			Code:    RejectIllegalTransition,
			Message: fmt.Sprintf("不允许从 %s 转换到 %s", from, to),
		}
	}
	return nil
}

// checkParentAuction 加载父拍卖会并检查结束族冻结规则
func (g *TransitionGuard) checkParentAuction(tx *gorm.DB, lot *models.Lot) (*Rejection, *models.Auction, error) {
	var auction models.Auction
	err := tx.Where("id = ? AND tenant_id = ?", lot.AuctionID, lot.TenantID).First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("标的所属拍卖会不存在")
		}
		return nil, nil, err
	}

	if status.IsClosedFamily(models.EntityTypeAuction, string(auction.Status)) {
		return &Rejection{
			Code:    RejectAuctionClosed,
			Message: fmt.Sprintf("拍卖会已结束（当前状态 %s），标的不可再变更", auction.Status),
			Entities: []RejectedEntity{{
				Type:   models.EntityTypeAuction,
				ID:     auction.ID,
				Status: string(auction.Status),
			}},
		}, &auction, nil
	}

	return nil, &auction, nil
}
