package services

import (
	"bidexpert/internal/models"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"
)

// TenantService 租户服务
type TenantService struct {
	db *gorm.DB
}

// NewTenantService 创建租户服务实例
func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *TenantService) GetWithFiltersAndPage(tenantStatus, keyword string, page, pageSize int) ([]*models.Tenant, int64, error) {
	var tenants []*models.Tenant
	var total int64

	query := s.db.Model(&models.Tenant{})

	// 添加过滤条件
	if tenantStatus != "" {
		query = query.Where("status = ?", tenantStatus)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name LIKE ? OR code LIKE ?", searchPattern, searchPattern)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&tenants).Error
	if err != nil {
		return nil, 0, err
	}

	return tenants, total, nil
}

// Create 创建租户
func (s *TenantService) Create(name, code string) (*models.Tenant, error) {
	// 验证参数
	if err := s.ValidateCreateParams(name, code); err != nil {
		return nil, err
	}

	// 检查代码是否重复
	var count int64
	s.db.Model(&models.Tenant{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, gorm.ErrDuplicatedKey
	}

	tenant := &models.Tenant{
		Name:   name,
		Code:   code,
		Status: models.TenantStatusActive,
	}

	err := s.db.Create(tenant).Error
	return tenant, err
}

// GetByID 根据ID获取租户
func (s *TenantService) GetByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.First(&tenant, id).Error
	return &tenant, err
}

// GetAllActive 获取所有激活的租户
func (s *TenantService) GetAllActive() ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	err := s.db.Model(&models.Tenant{}).
		Where("status = ?", models.TenantStatusActive).
		Order("created_at DESC").
		Find(&tenants).Error
	return tenants, err
}

// UpdateStatus 启用/停用租户
func (s *TenantService) UpdateStatus(id uint, tenantStatus string) error {
	if tenantStatus != models.TenantStatusActive && tenantStatus != models.TenantStatusInactive {
		return fmt.Errorf("未知租户状态 %s", tenantStatus)
	}
	return s.db.Model(&models.Tenant{}).Where("id = ?", id).
		Update("status", tenantStatus).Error
}

// ValidateCreateParams 验证创建参数
func (s *TenantService) ValidateCreateParams(name, code string) error {
	if name == "" {
		return fmt.Errorf("租户名称不能为空")
	}
	if utf8.RuneCountInString(name) > 100 {
		return fmt.Errorf("租户名称不能超过100个字符")
	}
	if code == "" {
		return fmt.Errorf("租户代码不能为空")
	}
	if utf8.RuneCountInString(code) > 50 {
		return fmt.Errorf("租户代码不能超过50个字符")
	}
	return nil
}
