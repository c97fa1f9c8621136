package services

import (
	"fmt"
	"io"
	"testing"

	"bidexpert/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testTenantID uint = 1

// newTestDB 构造内存SQLite库，迁移全部模型并写入默认租户
// 限制单连接，避免:memory:模式下多连接各自拿到独立数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Auction{},
		&models.Lot{},
		&models.Asset{},
		&models.AssetLotLink{},
		&models.AuditLog{},
		&models.ReconciliationRun{},
	)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Tenant{
		Name: "测试租户",
		Code: "test",
	}).Error)

	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var seq int

// makeAuction 写入指定状态的拍卖会
func makeAuction(t *testing.T, db *gorm.DB, auctionStatus models.AuctionStatus) *models.Auction {
	t.Helper()
	seq++
	auction := &models.Auction{
		TenantID: testTenantID,
		Code:     fmt.Sprintf("A-%d", seq),
		Title:    fmt.Sprintf("测试拍卖会%d", seq),
		Status:   auctionStatus,
	}
	require.NoError(t, db.Create(auction).Error)
	return auction
}

// makeLot 在指定拍卖会下写入指定状态的标的
func makeLot(t *testing.T, db *gorm.DB, auctionID uint, lotStatus models.LotStatus) *models.Lot {
	t.Helper()
	seq++
	lot := &models.Lot{
		TenantID:  testTenantID,
		AuctionID: auctionID,
		Number:    seq,
		Title:     fmt.Sprintf("测试标的%d", seq),
		Status:    lotStatus,
	}
	require.NoError(t, db.Create(lot).Error)
	return lot
}

// makeAsset 写入指定状态的资产
func makeAsset(t *testing.T, db *gorm.DB, assetStatus models.AssetStatus) *models.Asset {
	t.Helper()
	seq++
	asset := &models.Asset{
		TenantID: testTenantID,
		Code:     fmt.Sprintf("AS-%d", seq),
		Title:    fmt.Sprintf("测试资产%d", seq),
		Status:   assetStatus,
	}
	require.NoError(t, db.Create(asset).Error)
	return asset
}

// makeLink 直接写入关联记录，绕过业务校验用于构造脏数据
func makeLink(t *testing.T, db *gorm.DB, lotID, assetID uint) *models.AssetLotLink {
	t.Helper()
	link := &models.AssetLotLink{
		TenantID: testTenantID,
		LotID:    lotID,
		AssetID:  assetID,
	}
	require.NoError(t, db.Create(link).Error)
	return link
}

// reloadAuction 重新读取拍卖会当前状态
func reloadAuction(t *testing.T, db *gorm.DB, id uint) *models.Auction {
	t.Helper()
	var auction models.Auction
	require.NoError(t, db.First(&auction, id).Error)
	return &auction
}

func reloadLot(t *testing.T, db *gorm.DB, id uint) *models.Lot {
	t.Helper()
	var lot models.Lot
	require.NoError(t, db.First(&lot, id).Error)
	return &lot
}

func reloadAsset(t *testing.T, db *gorm.DB, id uint) *models.Asset {
	t.Helper()
	var asset models.Asset
	require.NoError(t, db.First(&asset, id).Error)
	return &asset
}

// countLinks 统计资产与标的之间的关联数
func countLinks(t *testing.T, db *gorm.DB, lotID, assetID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AssetLotLink{}).
		Where("lot_id = ? AND asset_id = ?", lotID, assetID).Count(&n).Error)
	return n
}

// countAudits 统计指定动作的审计条数
func countAudits(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ?", action).Count(&n).Error)
	return n
}
