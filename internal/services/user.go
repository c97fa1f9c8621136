package services

import (
	"bidexpert/internal/models"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// UserService 用户服务
type UserService struct {
	db *gorm.DB
}

// NewUserService 创建用户服务实例
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Create 创建用户
func (s *UserService) Create(user *models.User, password string) error {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("用户名或邮箱已存在")
	}

	if err := user.SetPassword(password); err != nil {
		return err
	}
	user.Status = models.UserStatusActive

	return s.db.Create(user).Error
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("用户不存在")
		}
		return nil, err
	}
	return &user, nil
}

// Login 校验用户名密码，成功后更新最后登录时间
func (s *UserService) Login(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("用户名或密码错误")
		}
		return nil, err
	}

	if user.Status != models.UserStatusActive {
		return nil, fmt.Errorf("用户已停用")
	}

	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("用户名或密码错误")
	}

	now := time.Now()
	s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("last_login_at", &now)

	return &user, nil
}
