package services

import (
	"bidexpert/internal/models"
	"bidexpert/internal/status"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// LinkingService 资产-标的挂接协调器
// 挂接/摘除和资产状态副作用在同一个事务内完成；
// 两步之间崩溃造成的漂移正是对账扫描负责修复的场景
type LinkingService struct {
	db       *gorm.DB
	guard    *TransitionGuard
	auditSvc *AuditService
}

// NewLinkingService 创建挂接协调器实例
func NewLinkingService(db *gorm.DB) *LinkingService {
	return &LinkingService{
		db:       db,
		guard:    NewTransitionGuard(db),
		auditSvc: NewAuditService(db),
	}
}

// Link 将资产挂接到标的，并强制资产状态为已入标的
// 幂等：重复挂接同一对直接成功返回
// 返回 (*Rejection, nil) 表示业务拒绝，error 表示存储故障
func (s *LinkingService) Link(tenantID, lotID, assetID, assignedBy uint) (*Rejection, error) {
	var rejection *Rejection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var lot models.Lot
		err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", lotID, tenantID).First(&lot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("标的不存在")
			}
			return err
		}

		// 挂接属于标的变更，父拍卖会已结束时拒绝
		rej, err := s.guard.AuthorizeLotMutation(tx, tenantID, lotID)
		if err != nil {
			return err
		}
		if rej != nil {
			rejection = rej
			return nil
		}

		// 已结束的标的不再接收资产
		if status.IsClosedFamily(models.EntityTypeLot, string(lot.Status)) {
			rejection = &Rejection{
				Code:    RejectIllegalTransition,
				Message: fmt.Sprintf("标的已结束（当前状态 %s），无法挂接资产", lot.Status),
			}
			return nil
		}

		var asset models.Asset
		err = lockForUpdate(tx).Where("id = ? AND tenant_id = ?", assetID, tenantID).First(&asset).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("资产不存在")
			}
			return err
		}

		// 终态资产不可再上拍
		if asset.Status.IsTerminal() {
			rejection = &Rejection{
				Code:    RejectAssetTerminal,
				Message: fmt.Sprintf("资产处于终态 %s，无法挂接", asset.Status),
			}
			return nil
		}

		// 幂等：已存在的关联直接视为成功
		var existing int64
		err = tx.Model(&models.AssetLotLink{}).
			Where("asset_id = ? AND lot_id = ? AND tenant_id = ?", assetID, lotID, tenantID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		// 单活跃关联约束：资产已挂在其他未结束标的上时拒绝
		activeLinks, err := s.activeLinksTx(tx, tenantID, assetID)
		if err != nil {
			return err
		}
		if len(activeLinks) > 0 {
			rejection = &Rejection{
				Code:    RejectAssetAlreadyInLot,
				Message: fmt.Sprintf("资产已挂接在标的 %d 上，需先摘除", activeLinks[0].LotID),
				Entities: []RejectedEntity{{
					Type: models.EntityTypeLot,
					ID:   activeLinks[0].LotID,
				}},
			}
			return nil
		}

		link := &models.AssetLotLink{
			TenantID:  tenantID,
			AssetID:   assetID,
			LotID:     lotID,
			CreatedBy: assignedBy,
		}
		if err := tx.Create(link).Error; err != nil {
			return err
		}

		if err := s.auditSvc.RecordTx(tx, tenantID, models.EntityTypeAsset, assetID,
			models.AuditActionLink, string(asset.Status), string(asset.Status),
			fmt.Sprintf("user:%d", assignedBy)); err != nil {
			return err
		}

		// 强制资产状态为已入标的
		if asset.Status != models.AssetStatusLotted {
			oldStatus := asset.Status
			err := tx.Model(&models.Asset{}).Where("id = ?", assetID).
				Update("status", models.AssetStatusLotted).Error
			if err != nil {
				return err
			}
			if err := s.auditSvc.RecordTx(tx, tenantID, models.EntityTypeAsset, assetID,
				models.AuditActionTransition, string(oldStatus), string(models.AssetStatusLotted),
				fmt.Sprintf("user:%d", assignedBy)); err != nil {
				return err
			}
		}

		return nil
	})

	return rejection, err
}

// Unlink 摘除资产与标的的关联
// 摘除后若资产再无活跃关联且非终态，回退为可上拍
// 幂等：关联不存在直接成功返回
func (s *LinkingService) Unlink(tenantID, lotID, assetID uint, actor string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var link models.AssetLotLink
		err := tx.Where("asset_id = ? AND lot_id = ? AND tenant_id = ?", assetID, lotID, tenantID).
			First(&link).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Delete(&link).Error; err != nil {
			return err
		}

		if err := s.auditSvc.RecordTx(tx, tenantID, models.EntityTypeAsset, assetID,
			models.AuditActionUnlink, "", "", actor); err != nil {
			return err
		}

		return s.RecomputeAssetStatusTx(tx, tenantID, assetID, models.AuditActionTransition, actor)
	})
}

// DetachLotLinksTx 标的进入结束族时的级联：删除其全部关联并重算资产状态
// 由拍卖会/标的关闭路径在各自事务内调用
func (s *LinkingService) DetachLotLinksTx(tx *gorm.DB, tenantID, lotID uint, actor string) error {
	var links []models.AssetLotLink
	err := tx.Where("lot_id = ? AND tenant_id = ?", lotID, tenantID).Find(&links).Error
	if err != nil {
		return err
	}

	for _, link := range links {
		if err := tx.Delete(&models.AssetLotLink{}, link.ID).Error; err != nil {
			return err
		}
		if err := s.auditSvc.RecordTx(tx, tenantID, models.EntityTypeAsset, link.AssetID,
			models.AuditActionUnlink, "", "", actor); err != nil {
			return err
		}
		if err := s.RecomputeAssetStatusTx(tx, tenantID, link.AssetID, models.AuditActionCascade, actor); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeAssetStatusTx 按当前活跃关联重算资产状态
// 有活跃关联则为已入标的，没有则回退可上拍；终态资产不动。
// 本身幂等，也被对账修复动作复用
func (s *LinkingService) RecomputeAssetStatusTx(tx *gorm.DB, tenantID, assetID uint, action, actor string) error {
	var asset models.Asset
	err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", assetID, tenantID).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("资产不存在")
		}
		return err
	}

	if asset.Status.IsTerminal() {
		return nil
	}

	activeLinks, err := s.activeLinksTx(tx, tenantID, assetID)
	if err != nil {
		return err
	}

	expected := models.AssetStatusAvailable
	if len(activeLinks) > 0 {
		expected = models.AssetStatusLotted
	}
	if asset.Status == expected {
		return nil
	}

	err = tx.Model(&models.Asset{}).Where("id = ?", assetID).
		Update("status", expected).Error
	if err != nil {
		return err
	}
	return s.auditSvc.RecordTx(tx, tenantID, models.EntityTypeAsset, assetID,
		action, string(asset.Status), string(expected), actor)
}

// activeLinksTx 查询资产的活跃关联（所在标的不属于结束族）
func (s *LinkingService) activeLinksTx(tx *gorm.DB, tenantID, assetID uint) ([]models.AssetLotLink, error) {
	var links []models.AssetLotLink
	err := tx.Preload("Lot").
		Where("asset_id = ? AND tenant_id = ?", assetID, tenantID).
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	active := make([]models.AssetLotLink, 0, len(links))
	for _, link := range links {
		if link.Lot != nil && !status.IsClosedFamily(models.EntityTypeLot, string(link.Lot.Status)) {
			active = append(active, link)
		}
	}
	return active, nil
}
