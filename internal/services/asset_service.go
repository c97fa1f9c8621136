package services

import (
	"bidexpert/internal/models"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// AssetService 资产服务
type AssetService struct {
	db       *gorm.DB
	guard    *TransitionGuard
	auditSvc *AuditService
}

// NewAssetService 创建资产服务实例
func NewAssetService(db *gorm.DB) *AssetService {
	return &AssetService{
		db:       db,
		guard:    NewTransitionGuard(db),
		auditSvc: NewAuditService(db),
	}
}

// Create 创建资产
func (s *AssetService) Create(asset *models.Asset) error {
	var count int64
	err := s.db.Model(&models.Asset{}).
		Where("tenant_id = ? AND code = ?", asset.TenantID, asset.Code).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("资产编号 %s 已存在", asset.Code)
	}

	asset.Status = models.AssetStatusAvailable
	return s.db.Create(asset).Error
}

// GetByID 根据ID获取资产（含关联标的）
func (s *AssetService) GetByID(id uint, tenantID uint) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.Preload("Links").Preload("Links.Lot").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("资产不存在")
		}
		return nil, err
	}
	return &asset, nil
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *AssetService) GetWithFiltersAndPage(tenantID uint, assetStatus, keyword string, page, pageSize int) ([]*models.Asset, int64, error) {
	var assets []*models.Asset
	var total int64

	query := s.db.Model(&models.Asset{}).Where("tenant_id = ?", tenantID)

	if assetStatus != "" {
		query = query.Where("status = ?", assetStatus)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("title LIKE ? OR code LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&assets).Error
	if err != nil {
		return nil, 0, err
	}

	return assets, total, nil
}

// Update 更新资产基础字段
func (s *AssetService) Update(id uint, tenantID uint, updates map[string]interface{}) error {
	var asset models.Asset
	err := s.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("资产不存在")
		}
		return err
	}

	// 状态字段只走UpdateStatus
	delete(updates, "status")

	return s.db.Model(&models.Asset{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStatus 执行资产状态转换（如成交后标记已售出）
// 挂接引起的状态联动不走这里，由LinkingService负责
func (s *AssetService) UpdateStatus(id uint, tenantID uint, requested models.AssetStatus, actor string) (*Rejection, error) {
	var rejection *Rejection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&asset).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("资产不存在")
			}
			return err
		}

		rej, err := s.guard.Authorize(tx, tenantID, models.EntityTypeAsset, id, string(requested))
		if err != nil {
			return err
		}
		if rej != nil {
			rejection = rej
			return nil
		}

		err = tx.Model(&models.Asset{}).Where("id = ?", id).
			Update("status", requested).Error
		if err != nil {
			return err
		}

		return s.auditSvc.RecordTx(tx, tenantID, models.EntityTypeAsset, id,
			models.AuditActionTransition, string(asset.Status), string(requested), actor)
	})

	return rejection, err
}

// Delete 删除资产
// 前置条件由守卫校验：无活跃关联且状态不是已入标的
func (s *AssetService) Delete(id uint, tenantID uint) (*Rejection, error) {
	var rejection *Rejection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rej, err := s.guard.AuthorizeAssetDelete(tx, tenantID, id)
		if err != nil {
			return err
		}
		if rej != nil {
			rejection = rej
			return nil
		}

		// 历史关联（指向已结束标的）随资产一并清理
		err = tx.Where("asset_id = ? AND tenant_id = ?", id, tenantID).
			Delete(&models.AssetLotLink{}).Error
		if err != nil {
			return err
		}

		return tx.Where("id = ? AND tenant_id = ?", id, tenantID).
			Delete(&models.Asset{}).Error
	})

	return rejection, err
}
