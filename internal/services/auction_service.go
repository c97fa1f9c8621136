package services

import (
	"bidexpert/internal/models"
	"bidexpert/internal/status"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// AuctionService 拍卖会服务
type AuctionService struct {
	db         *gorm.DB
	guard      *TransitionGuard
	linkingSvc *LinkingService
	auditSvc   *AuditService
}

// NewAuctionService 创建拍卖会服务实例
func NewAuctionService(db *gorm.DB) *AuctionService {
	return &AuctionService{
		db:         db,
		guard:      NewTransitionGuard(db),
		linkingSvc: NewLinkingService(db),
		auditSvc:   NewAuditService(db),
	}
}

// Create 创建拍卖会
func (s *AuctionService) Create(auction *models.Auction) error {
	// 检查同租户下编号是否已存在
	var count int64
	err := s.db.Model(&models.Auction{}).
		Where("tenant_id = ? AND code = ?", auction.TenantID, auction.Code).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("拍卖会编号 %s 已存在", auction.Code)
	}

	auction.Status = models.AuctionStatusDraft
	return s.db.Create(auction).Error
}

// GetByID 根据ID获取拍卖会（含标的）
func (s *AuctionService) GetByID(id uint, tenantID uint) (*models.Auction, error) {
	var auction models.Auction
	err := s.db.Preload("Lots").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("拍卖会不存在")
		}
		return nil, err
	}
	return &auction, nil
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *AuctionService) GetWithFiltersAndPage(tenantID uint, auctionStatus, keyword string, page, pageSize int) ([]*models.Auction, int64, error) {
	var auctions []*models.Auction
	var total int64

	query := s.db.Model(&models.Auction{}).Where("tenant_id = ?", tenantID)

	// 添加过滤条件
	if auctionStatus != "" {
		query = query.Where("status = ?", auctionStatus)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("title LIKE ? OR code LIKE ?", searchPattern, searchPattern)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&auctions).Error
	if err != nil {
		return nil, 0, err
	}

	return auctions, total, nil
}

// Update 更新拍卖会基础字段
func (s *AuctionService) Update(id uint, tenantID uint, updates map[string]interface{}) error {
	var auction models.Auction
	err := s.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("拍卖会不存在")
		}
		return err
	}

	// 状态字段只走UpdateStatus
	delete(updates, "status")

	return s.db.Model(&models.Auction{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStatus 执行拍卖会状态转换
// 守卫校验和落库在同一事务内完成；进入结束族时级联关闭开放中的标的
func (s *AuctionService) UpdateStatus(id uint, tenantID uint, requested models.AuctionStatus, actor string) (*Rejection, error) {
	var rejection *Rejection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&auction).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("拍卖会不存在")
			}
			return err
		}

		rej, err := s.guard.Authorize(tx, tenantID, models.EntityTypeAuction, id, string(requested))
		if err != nil {
			return err
		}
		if rej != nil {
			rejection = rej
			return nil
		}

		err = tx.Model(&models.Auction{}).Where("id = ?", id).
			Update("status", requested).Error
		if err != nil {
			return err
		}

		if err := s.auditSvc.RecordTx(tx, tenantID, models.EntityTypeAuction, id,
			models.AuditActionTransition, string(auction.Status), string(requested), actor); err != nil {
			return err
		}

		// 拍卖会结束 -> 级联关闭仍开放的标的
		if status.IsClosedFamily(models.EntityTypeAuction, string(requested)) {
			if err := s.closeOpenLotsTx(tx, tenantID, id, actor); err != nil {
				return err
			}
		}

		return nil
	})

	return rejection, err
}

// closeOpenLotsTx 关闭拍卖会下所有开放族标的，并级联摘除其资产
func (s *AuctionService) closeOpenLotsTx(tx *gorm.DB, tenantID, auctionID uint, actor string) error {
	var lots []models.Lot
	err := tx.Where("auction_id = ? AND tenant_id = ?", auctionID, tenantID).Find(&lots).Error
	if err != nil {
		return err
	}

	for _, lot := range lots {
		if !status.IsOpenFamily(models.EntityTypeLot, string(lot.Status)) {
			continue
		}
		err := tx.Model(&models.Lot{}).Where("id = ?", lot.ID).
			Update("status", models.LotStatusClosed).Error
		if err != nil {
			return err
		}
		if err := s.auditSvc.RecordTx(tx, tenantID, models.EntityTypeLot, lot.ID,
			models.AuditActionCascade, string(lot.Status), string(models.LotStatusClosed), actor); err != nil {
			return err
		}
		if err := s.linkingSvc.DetachLotLinksTx(tx, tenantID, lot.ID, actor); err != nil {
			return err
		}
	}
	return nil
}

// Delete 删除拍卖会
// 只允许删除草稿族且没有标的的拍卖会；出过价的拍卖会只能转入终态
func (s *AuctionService) Delete(id uint, tenantID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&auction).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("拍卖会不存在")
			}
			return err
		}

		if !status.IsDraftFamily(models.EntityTypeAuction, string(auction.Status)) {
			return fmt.Errorf("只有草稿状态的拍卖会才能删除")
		}

		var lotCount int64
		err = tx.Model(&models.Lot{}).
			Where("auction_id = ? AND tenant_id = ?", id, tenantID).
			Count(&lotCount).Error
		if err != nil {
			return err
		}
		if lotCount > 0 {
			return fmt.Errorf("拍卖会下仍有 %d 个标的，无法删除", lotCount)
		}

		return tx.Delete(&models.Auction{}, id).Error
	})
}
