package main

import (
	"bidexpert/internal/database"
	"bidexpert/internal/models"
	"bidexpert/internal/services"
	"bidexpert/pkg/config"
	"bidexpert/pkg/logger"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// 退出码约定：
//
//	0 - 无违规
//	1 - 发现违规（dry-run），或发现并全部修复（fix）
//	2 - 修复后仍有残留违规
//	3 - 扫描本身执行失败
const (
	exitClean     = 0
	exitFound     = 1
	exitRemaining = 2
	exitFailed    = 3
)

type reconcileOptions struct {
	TenantID   uint
	AllTenants bool
	Fix        bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := &reconcileOptions{}
	exitCode := exitClean

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "BidExpert 一致性对账工具",
		Long:  "对租户的拍卖会/标的/资产状态做全量一致性扫描，可选自动修复",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.AllTenants && opts.TenantID == 0 {
				return fmt.Errorf("必须指定 --tenant 或 --all-tenants")
			}
			code, err := runReconcile(opts)
			exitCode = code
			return err
		},
		SilenceUsage: true,
	}

	cmd.Flags().UintVar(&opts.TenantID, "tenant", 0, "租户ID")
	cmd.Flags().BoolVar(&opts.AllTenants, "all-tenants", false, "扫描所有活跃租户")
	cmd.Flags().BoolVar(&opts.Fix, "fix", false, "应用自动修复（默认只检测）")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if exitCode == exitClean {
			exitCode = exitFailed
		}
	}
	return exitCode
}

func runReconcile(opts *reconcileOptions) (int, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return exitFailed, fmt.Errorf("加载配置失败: %v", err)
	}
	if err := logger.Initialize(cfg); err != nil {
		return exitFailed, fmt.Errorf("初始化日志失败: %v", err)
	}
	if err := database.Initialize(cfg); err != nil {
		return exitFailed, fmt.Errorf("初始化数据库失败: %v", err)
	}
	defer database.Close()

	db := database.GetDB()
	svc := services.NewReconciliationService(db, logger.GetLogger(), cfg.Reconciler.MaxPasses)

	mode := models.ScanModeDryRun
	if opts.Fix {
		mode = models.ScanModeFix
	}

	tenantIDs := []uint{opts.TenantID}
	if opts.AllTenants {
		tenantIDs = nil
		var tenants []models.Tenant
		if err := db.Where("status = ?", models.TenantStatusActive).Find(&tenants).Error; err != nil {
			return exitFailed, fmt.Errorf("查询租户列表失败: %v", err)
		}
		for _, t := range tenants {
			tenantIDs = append(tenantIDs, t.ID)
		}
		if len(tenantIDs) == 0 {
			fmt.Println("没有活跃租户，无需扫描")
			return exitClean, nil
		}
	}

	worst := exitClean
	for _, tenantID := range tenantIDs {
		result, err := svc.Scan(tenantID, mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "租户 %d 扫描失败: %v\n", tenantID, err)
			worst = maxCode(worst, exitFailed)
			continue
		}
		fmt.Print(services.RenderText(result))
		worst = maxCode(worst, exitCodeFor(result))
	}
	return worst, nil
}

// exitCodeFor 把扫描结果映射为退出码
func exitCodeFor(result *services.ScanResult) int {
	switch result.Status {
	case models.ScanStatusClean:
		return exitClean
	case models.ScanStatusFixed:
		return exitFound
	case models.ScanStatusRemaining:
		// dry-run发现违规时同样是remaining状态，但只算"发现"
		if result.Mode == models.ScanModeDryRun {
			return exitFound
		}
		return exitRemaining
	default:
		return exitFailed
	}
}

func maxCode(a, b int) int {
	if b > a {
		return b
	}
	return a
}
