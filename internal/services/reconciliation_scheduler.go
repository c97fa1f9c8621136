package services

import (
	"bidexpert/internal/models"
	"bidexpert/pkg/config"
	"bidexpert/pkg/lock"
	"bidexpert/pkg/logger"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReconciliationScheduler 对账定时调度器
// 按配置的cron表达式对所有活跃租户跑修复模式扫描；
// 通过Redis租约保证同一租户同一时刻只有一个扫描实例
type ReconciliationScheduler struct {
	db            *gorm.DB
	cron          *cron.Cron
	reconService  *ReconciliationService
	tenantService *TenantService
	redisLock     *lock.RedisLock
	logger        *logrus.Logger
	cfg           config.ReconcilerConfig
	entryID       cron.EntryID
	isRunning     bool
}

// NewReconciliationScheduler 创建对账调度器
func NewReconciliationScheduler(db *gorm.DB, redisLock *lock.RedisLock, cfg config.ReconcilerConfig) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		db:            db,
		cron:          cron.New(cron.WithSeconds()),
		reconService:  NewReconciliationService(db, logger.GetLogger(), cfg.MaxPasses),
		tenantService: NewTenantService(db),
		redisLock:     redisLock,
		logger:        logger.GetLogger(),
		cfg:           cfg,
	}
}

// Start 启动调度器
func (s *ReconciliationScheduler) Start() error {
	if s.isRunning {
		return fmt.Errorf("调度器已经在运行")
	}

	entryID, err := s.cron.AddFunc(s.cfg.CronExpr, s.runAllTenants)
	if err != nil {
		return fmt.Errorf("注册对账任务失败: %v", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	s.logger.Infof("对账调度器启动成功，cron表达式: %s", s.cfg.CronExpr)
	return nil
}

// Stop 停止调度器
func (s *ReconciliationScheduler) Stop() {
	if !s.isRunning {
		return
	}

	s.logger.Info("停止对账调度器")
	s.cron.Stop()
	s.isRunning = false
}

// runAllTenants 对所有活跃租户执行一轮修复模式扫描
func (s *ReconciliationScheduler) runAllTenants() {
	tenants, err := s.tenantService.GetAllActive()
	if err != nil {
		s.logger.Errorf("加载活跃租户失败: %v", err)
		return
	}

	for _, tenant := range tenants {
		s.runTenant(tenant.ID)
	}
}

// runTenant 带租约执行单个租户的扫描
func (s *ReconciliationScheduler) runTenant(tenantID uint) {
	lockKey := fmt.Sprintf("reconcile:tenant:%d", tenantID)
	ttl := time.Duration(s.cfg.LockTTLSec) * time.Second

	acquired, err := s.redisLock.Acquire(lockKey, ttl)
	if err != nil {
		// Redis不可用时照常执行：修复动作幂等，双跑只是浪费
		s.logger.Warnf("获取租户 %d 的扫描锁失败，降级为无锁执行: %v", tenantID, err)
	} else if !acquired {
		s.logger.Debugf("租户 %d 已有扫描在执行，跳过", tenantID)
		return
	} else {
		defer func() {
			if err := s.redisLock.Release(lockKey); err != nil {
				s.logger.Warnf("释放租户 %d 的扫描锁失败: %v", tenantID, err)
			}
		}()
	}

	result, err := s.reconService.Scan(tenantID, models.ScanModeFix)
	if err != nil {
		s.logger.Errorf("租户 %d 对账扫描失败: %v", tenantID, err)
		return
	}

	entry := s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"run_id":    result.RunID,
		"status":    result.Status,
		"passes":    result.Passes,
		"repairs":   result.RepairsApplied,
		"failures":  result.RepairFailures,
	})
	if result.Status == models.ScanStatusClean {
		entry.Debug("对账扫描完成，数据一致")
	} else {
		entry.Info("对账扫描完成")
	}
}
