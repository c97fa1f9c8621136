package services

import (
	"bidexpert/internal/models"
	"bidexpert/internal/status"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// LotService 标的服务
type LotService struct {
	db         *gorm.DB
	guard      *TransitionGuard
	linkingSvc *LinkingService
	auditSvc   *AuditService
}

// NewLotService 创建标的服务实例
func NewLotService(db *gorm.DB) *LotService {
	return &LotService{
		db:         db,
		guard:      NewTransitionGuard(db),
		linkingSvc: NewLinkingService(db),
		auditSvc:   NewAuditService(db),
	}
}

// Create 创建标的
// 父拍卖会必须存在且未结束；标的号在拍卖会内唯一
func (s *LotService) Create(lot *models.Lot) (*Rejection, error) {
	var auction models.Auction
	err := s.db.Where("id = ? AND tenant_id = ?", lot.AuctionID, lot.TenantID).First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("拍卖会不存在")
		}
		return nil, err
	}

	if status.IsClosedFamily(models.EntityTypeAuction, string(auction.Status)) {
		return &Rejection{
			Code:    RejectAuctionClosed,
			Message: fmt.Sprintf("拍卖会已结束（当前状态 %s），无法新增标的", auction.Status),
		}, nil
	}

	var count int64
	err = s.db.Model(&models.Lot{}).
		Where("auction_id = ? AND number = ?", lot.AuctionID, lot.Number).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("标的号 %d 在该拍卖会内已存在", lot.Number)
	}

	lot.Status = models.LotStatusDraft
	return nil, s.db.Create(lot).Error
}

// GetByID 根据ID获取标的（含关联资产）
func (s *LotService) GetByID(id uint, tenantID uint) (*models.Lot, error) {
	var lot models.Lot
	err := s.db.Preload("Links").Preload("Links.Asset").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&lot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("标的不存在")
		}
		return nil, err
	}
	return &lot, nil
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *LotService) GetWithFiltersAndPage(tenantID, auctionID uint, lotStatus string, page, pageSize int) ([]*models.Lot, int64, error) {
	var lots []*models.Lot
	var total int64

	query := s.db.Model(&models.Lot{}).Where("tenant_id = ?", tenantID)

	if auctionID > 0 {
		query = query.Where("auction_id = ?", auctionID)
	}
	if lotStatus != "" {
		query = query.Where("status = ?", lotStatus)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("auction_id, number").Offset(offset).Limit(pageSize).Find(&lots).Error
	if err != nil {
		return nil, 0, err
	}

	return lots, total, nil
}

// Update 更新标的基础字段
// 任何形式的变更都要先过守卫的结束族冻结检查
func (s *LotService) Update(id uint, tenantID uint, updates map[string]interface{}) (*Rejection, error) {
	var rejection *Rejection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rej, err := s.guard.AuthorizeLotMutation(tx, tenantID, id)
		if err != nil {
			return err
		}
		if rej != nil {
			rejection = rej
			return nil
		}

		// 状态字段只走UpdateStatus
		delete(updates, "status")

		return tx.Model(&models.Lot{}).Where("id = ? AND tenant_id = ?", id, tenantID).
			Updates(updates).Error
	})

	return rejection, err
}

// UpdateStatus 执行标的状态转换
// 进入结束族时级联摘除全部资产关联并重算资产状态
func (s *LotService) UpdateStatus(id uint, tenantID uint, requested models.LotStatus, actor string) (*Rejection, error) {
	var rejection *Rejection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var lot models.Lot
		err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&lot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("标的不存在")
			}
			return err
		}

		rej, err := s.guard.Authorize(tx, tenantID, models.EntityTypeLot, id, string(requested))
		if err != nil {
			return err
		}
		if rej != nil {
			rejection = rej
			return nil
		}

		err = tx.Model(&models.Lot{}).Where("id = ?", id).
			Update("status", requested).Error
		if err != nil {
			return err
		}

		if err := s.auditSvc.RecordTx(tx, tenantID, models.EntityTypeLot, id,
			models.AuditActionTransition, string(lot.Status), string(requested), actor); err != nil {
			return err
		}

		// 标的结束 -> 摘除资产关联并重算资产状态
		if status.IsClosedFamily(models.EntityTypeLot, string(requested)) {
			if err := s.linkingSvc.DetachLotLinksTx(tx, tenantID, id, actor); err != nil {
				return err
			}
		}

		return nil
	})

	return rejection, err
}

// Delete 删除标的
// 只允许删除草稿状态且未挂接资产的标的
func (s *LotService) Delete(id uint, tenantID uint) (*Rejection, error) {
	var rejection *Rejection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var lot models.Lot
		err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&lot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("标的不存在")
			}
			return err
		}

		rej, err := s.guard.AuthorizeLotMutation(tx, tenantID, id)
		if err != nil {
			return err
		}
		if rej != nil {
			rejection = rej
			return nil
		}

		if lot.Status != models.LotStatusDraft {
			return fmt.Errorf("只有草稿状态的标的才能删除")
		}

		var linkCount int64
		err = tx.Model(&models.AssetLotLink{}).
			Where("lot_id = ? AND tenant_id = ?", id, tenantID).
			Count(&linkCount).Error
		if err != nil {
			return err
		}
		if linkCount > 0 {
			return fmt.Errorf("标的仍挂接 %d 项资产，无法删除", linkCount)
		}

		return tx.Delete(&models.Lot{}, id).Error
	})

	return rejection, err
}
