package services

import (
	"bidexpert/internal/models"
	"bidexpert/internal/status"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 对账修复动作的执行者标识
const reconcilerActor = "reconciler"

// RepairResult 单条违规的修复结果
type RepairResult struct {
	Violation Violation `json:"violation"`
	Applied   bool      `json:"applied"`         // 实际发生了写入（幂等重放时为false）
	Error     string    `json:"error,omitempty"` // 修复失败原因，不中断其余修复
}

// ScanResult 一次对账扫描的完整结果
type ScanResult struct {
	RunID      string     `json:"run_id"`
	TenantID   uint       `json:"tenant_id"`
	Mode       string     `json:"mode"`
	Status     string     `json:"status"`
	Passes     int        `json:"passes"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`

	// 首轮发现的违规与最终残留
	Initial   *ViolationReport `json:"initial"`
	Remaining *ViolationReport `json:"remaining"`

	Repairs        []RepairResult `json:"repairs"`
	RepairsApplied int            `json:"repairs_applied"`
	RepairFailures int            `json:"repair_failures"`
}

// ReconciliationService 对账扫描器
// 租户全量跑一致性校验，把每条违规按类型分发到对应的修复动作；
// 修复动作全部幂等，重复应用是安全的空操作
type ReconciliationService struct {
	db         *gorm.DB
	validator  *ConsistencyValidator
	linkingSvc *LinkingService
	auditSvc   *AuditService
	logger     *logrus.Logger
	maxPasses  int
}

type repairFunc func(tx *gorm.DB, v Violation) (bool, error)

// NewReconciliationService 创建对账扫描器实例
func NewReconciliationService(db *gorm.DB, logger *logrus.Logger, maxPasses int) *ReconciliationService {
	if maxPasses < 1 {
		maxPasses = 1
	}
	return &ReconciliationService{
		db:         db,
		validator:  NewConsistencyValidator(db),
		linkingSvc: NewLinkingService(db),
		auditSvc:   NewAuditService(db),
		logger:     logger,
		maxPasses:  maxPasses,
	}
}

// Scan 执行一次对账扫描
// dry_run 模式只返回校验报告；fix 模式对每条可自动修复的违规应用修复动作，
// 然后重扫，直到干净或用尽重试预算（并发写入可能在扫描间制造新漂移）
func (s *ReconciliationService) Scan(tenantID uint, mode string) (*ScanResult, error) {
	if mode != models.ScanModeDryRun && mode != models.ScanModeFix {
		return nil, fmt.Errorf("未知扫描模式 %s", mode)
	}

	result := &ScanResult{
		RunID:     uuid.New().String(),
		TenantID:  tenantID,
		Mode:      mode,
		StartedAt: time.Now(),
		Repairs:   []RepairResult{},
	}

	report, err := s.validator.ValidateTenant(tenantID)
	if err != nil {
		s.persistRun(result, models.ScanStatusFailed)
		return nil, fmt.Errorf("一致性校验失败: %v", err)
	}
	result.Initial = report
	result.Remaining = report
	result.Passes = 1

	if mode == models.ScanModeDryRun {
		result.FinishedAt = time.Now()
		if report.Clean() {
			result.Status = models.ScanStatusClean
		} else {
			result.Status = models.ScanStatusRemaining
		}
		s.persistRun(result, result.Status)
		return result, nil
	}

	// 修复模式：应用修复后重扫，直到稳定或预算耗尽
	for pass := 1; pass <= s.maxPasses; pass++ {
		result.Passes = pass
		if report.Clean() {
			break
		}

		for _, violation := range report.Violations {
			if !violation.AutoFixable {
				continue
			}
			applied, err := s.repair(violation)
			item := RepairResult{Violation: violation, Applied: applied}
			if err != nil {
				// 单条修复失败只记录，不放弃本轮剩余修复
				item.Error = err.Error()
				result.RepairFailures++
				s.logger.WithFields(logrus.Fields{
					"tenant_id": tenantID,
					"type":      violation.Type,
					"entity_id": violation.EntityID,
				}).Warnf("修复动作失败: %v", err)
			} else if applied {
				result.RepairsApplied++
			}
			result.Repairs = append(result.Repairs, item)
		}

		report, err = s.validator.ValidateTenant(tenantID)
		if err != nil {
			s.persistRun(result, models.ScanStatusFailed)
			return nil, fmt.Errorf("修复后重扫失败: %v", err)
		}
		result.Remaining = report
	}

	result.FinishedAt = time.Now()
	switch {
	case result.Remaining.Clean() && result.RepairsApplied == 0 && len(result.Initial.Violations) == 0:
		result.Status = models.ScanStatusClean
	case result.Remaining.Clean():
		result.Status = models.ScanStatusFixed
	default:
		result.Status = models.ScanStatusRemaining
	}

	s.persistRun(result, result.Status)
	return result, nil
}

// repair 按违规类型分发修复动作，每条修复跑在独立事务内
// 返回是否实际写入（目标状态已满足时为幂等空操作）
func (s *ReconciliationService) repair(v Violation) (bool, error) {
	table := map[ViolationType]repairFunc{
		ViolationOpenAuctionWithDraftLot: s.repairOpenAuctionWithDraftLot,
		ViolationOpenLotWithClosedAuction: s.repairOpenLotWithClosedAuction,
		ViolationOpenLotWithoutAssets:    s.repairOpenLotWithoutAssets,
		ViolationLottedAssetWithoutLink:  s.repairLottedAssetWithoutLink,
		ViolationAssetInLotNotLotted:     s.repairAssetInLotNotLotted,
	}

	action, ok := table[v.Type]
	if !ok {
		return false, fmt.Errorf("违规类型 %s 没有对应的修复动作", v.Type)
	}

	var applied bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		applied, err = action(tx, v)
		return err
	})
	return applied, err
}

// 修复1：开放拍卖会下有草稿标的 -> 拍卖会回退为筹备中
func (s *ReconciliationService) repairOpenAuctionWithDraftLot(tx *gorm.DB, v Violation) (bool, error) {
	var auction models.Auction
	err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", v.EntityID, v.TenantID).First(&auction).Error
	if err != nil {
		return false, err
	}

	// 状态已被其他写者纠正则无事可做
	if !status.IsOpenFamily(models.EntityTypeAuction, string(auction.Status)) {
		return false, nil
	}

	err = tx.Model(&models.Auction{}).Where("id = ?", auction.ID).
		Update("status", models.AuctionStatusInPreparation).Error
	if err != nil {
		return false, err
	}
	return true, s.auditSvc.RecordTx(tx, auction.TenantID, models.EntityTypeAuction, auction.ID,
		models.AuditActionRepair, string(auction.Status), string(models.AuctionStatusInPreparation), reconcilerActor)
}

// 修复2：竞价标的挂在已结束拍卖会下 -> 标的强制关闭（含摘除资产级联）
func (s *ReconciliationService) repairOpenLotWithClosedAuction(tx *gorm.DB, v Violation) (bool, error) {
	var lot models.Lot
	err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", v.EntityID, v.TenantID).First(&lot).Error
	if err != nil {
		return false, err
	}

	if lot.Status != models.LotStatusOpenForBids {
		return false, nil
	}

	err = tx.Model(&models.Lot{}).Where("id = ?", lot.ID).
		Update("status", models.LotStatusClosed).Error
	if err != nil {
		return false, err
	}
	if err := s.auditSvc.RecordTx(tx, lot.TenantID, models.EntityTypeLot, lot.ID,
		models.AuditActionRepair, string(lot.Status), string(models.LotStatusClosed), reconcilerActor); err != nil {
		return false, err
	}
	// 标的关闭的正常级联同样适用于修复路径
	return true, s.linkingSvc.DetachLotLinksTx(tx, lot.TenantID, lot.ID, reconcilerActor)
}

// 修复3：开放标的没有资产 -> 标的回退为草稿
func (s *ReconciliationService) repairOpenLotWithoutAssets(tx *gorm.DB, v Violation) (bool, error) {
	var lot models.Lot
	err := lockForUpdate(tx).Where("id = ? AND tenant_id = ?", v.EntityID, v.TenantID).First(&lot).Error
	if err != nil {
		return false, err
	}

	if lot.Status != models.LotStatusOpenForBids && lot.Status != models.LotStatusComingSoon {
		return false, nil
	}

	// 重新确认资产仍为零，避免覆盖并发挂接
	var linkCount int64
	err = tx.Model(&models.AssetLotLink{}).
		Where("lot_id = ? AND tenant_id = ?", lot.ID, lot.TenantID).
		Count(&linkCount).Error
	if err != nil {
		return false, err
	}
	if linkCount > 0 {
		return false, nil
	}

	err = tx.Model(&models.Lot{}).Where("id = ?", lot.ID).
		Update("status", models.LotStatusDraft).Error
	if err != nil {
		return false, err
	}
	return true, s.auditSvc.RecordTx(tx, lot.TenantID, models.EntityTypeLot, lot.ID,
		models.AuditActionRepair, string(lot.Status), string(models.LotStatusDraft), reconcilerActor)
}

// 修复4/5：资产状态与活跃关联不一致 -> 按关联重算状态
func (s *ReconciliationService) repairLottedAssetWithoutLink(tx *gorm.DB, v Violation) (bool, error) {
	return s.recomputeAsset(tx, v)
}

func (s *ReconciliationService) repairAssetInLotNotLotted(tx *gorm.DB, v Violation) (bool, error) {
	return s.recomputeAsset(tx, v)
}

func (s *ReconciliationService) recomputeAsset(tx *gorm.DB, v Violation) (bool, error) {
	var before models.Asset
	err := tx.Where("id = ? AND tenant_id = ?", v.EntityID, v.TenantID).First(&before).Error
	if err != nil {
		return false, err
	}

	if err := s.linkingSvc.RecomputeAssetStatusTx(tx, v.TenantID, v.EntityID, models.AuditActionRepair, reconcilerActor); err != nil {
		return false, err
	}

	var after models.Asset
	if err := tx.Where("id = ?", v.EntityID).First(&after).Error; err != nil {
		return false, err
	}
	return before.Status != after.Status, nil
}

// persistRun 把扫描结果落库，失败只记日志（报告本身仍返回给调用方）
func (s *ReconciliationService) persistRun(result *ScanResult, runStatus string) {
	violations := []Violation{}
	if result.Remaining != nil {
		violations = result.Remaining.Violations
	}
	violationsJSON, _ := json.Marshal(violations)
	repairsJSON, _ := json.Marshal(result.Repairs)

	fixable := 0
	violationCount := 0
	if result.Initial != nil {
		violationCount = len(result.Initial.Violations)
		for _, v := range result.Initial.Violations {
			if v.AutoFixable {
				fixable++
			}
		}
	}

	finishedAt := time.Now()
	run := &models.ReconciliationRun{
		RunID:          result.RunID,
		TenantID:       result.TenantID,
		Mode:           result.Mode,
		Status:         runStatus,
		Passes:         result.Passes,
		StartedAt:      result.StartedAt,
		FinishedAt:     &finishedAt,
		ViolationCount: violationCount,
		FixableCount:   fixable,
		RepairsApplied: result.RepairsApplied,
		RepairFailures: result.RepairFailures,
		Violations:     violationsJSON,
		Repairs:        repairsJSON,
	}
	if err := s.db.Create(run).Error; err != nil {
		s.logger.Errorf("保存对账记录失败: %v", err)
	}
}

// GetRuns 分页查询历史扫描记录
func (s *ReconciliationService) GetRuns(tenantID uint, page, pageSize int) ([]*models.ReconciliationRun, int64, error) {
	var runs []*models.ReconciliationRun
	var total int64

	query := s.db.Model(&models.ReconciliationRun{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("started_at DESC").Offset(offset).Limit(pageSize).Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// GetRunByID 按RunID查询单次扫描记录
func (s *ReconciliationService) GetRunByID(tenantID uint, runID string) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	err := s.db.Where("run_id = ? AND tenant_id = ?", runID, tenantID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// RenderText 渲染给运营人员阅读的文本报告
func RenderText(result *ScanResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "对账扫描报告 %s\n", result.RunID)
	fmt.Fprintf(&b, "租户: %d  模式: %s  轮数: %d  结果: %s\n",
		result.TenantID, result.Mode, result.Passes, result.Status)
	fmt.Fprintf(&b, "开始: %s  结束: %s\n",
		result.StartedAt.Format(time.RFC3339), result.FinishedAt.Format(time.RFC3339))

	if result.Initial != nil && len(result.Initial.Violations) > 0 {
		fmt.Fprintf(&b, "\n发现违规 %d 条:\n", len(result.Initial.Violations))
		for vtype, count := range result.Initial.CountsByType {
			fmt.Fprintf(&b, "  %-28s %d\n", vtype, count)
		}
		for _, v := range result.Initial.Violations {
			flag := "需人工处理"
			if v.AutoFixable {
				flag = "可自动修复"
			}
			fmt.Fprintf(&b, "  - [%s] %s（%s）\n", v.Type, v.Message, flag)
		}
	} else {
		b.WriteString("\n未发现违规\n")
	}

	if result.Mode == models.ScanModeFix {
		fmt.Fprintf(&b, "\n修复应用 %d 条，失败 %d 条\n", result.RepairsApplied, result.RepairFailures)
		for _, r := range result.Repairs {
			if r.Error != "" {
				fmt.Fprintf(&b, "  - [失败] %s: %s\n", r.Violation.Type, r.Error)
			}
		}
		if result.Remaining != nil && !result.Remaining.Clean() {
			fmt.Fprintf(&b, "残留违规 %d 条，需人工复核\n", len(result.Remaining.Violations))
		}
	}

	return b.String()
}
