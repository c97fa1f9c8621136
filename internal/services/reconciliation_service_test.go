package services

import (
	"strings"
	"testing"

	"bidexpert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDryRunDoesNotMutate(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	lot := makeLot(t, db, auction.ID, models.LotStatusDraft)

	result, err := svc.Scan(testTenantID, models.ScanModeDryRun)
	require.NoError(t, err)

	assert.Equal(t, models.ScanStatusRemaining, result.Status)
	assert.NotEmpty(t, result.Initial.Violations)
	assert.Empty(t, result.Repairs)

	// 只检测不修复
	assert.Equal(t, models.AuctionStatusOpen, reloadAuction(t, db, auction.ID).Status)
	assert.Equal(t, models.LotStatusDraft, reloadLot(t, db, lot.ID).Status)
	assert.Equal(t, int64(0), countAudits(t, db, models.AuditActionRepair))
}

func TestScanCleanTenant(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	result, err := svc.Scan(testTenantID, models.ScanModeDryRun)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusClean, result.Status)
	assert.True(t, result.Initial.Clean())
}

func TestScanRejectsUnknownMode(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	_, err := svc.Scan(testTenantID, "repair")
	assert.Error(t, err)
}

func TestFixOpenAuctionWithDraftLot(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	makeLot(t, db, auction.ID, models.LotStatusDraft)

	result, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)

	assert.Equal(t, models.ScanStatusFixed, result.Status)
	assert.Equal(t, models.AuctionStatusInPreparation, reloadAuction(t, db, auction.ID).Status)
	assert.True(t, result.Remaining.Clean())
	assert.Equal(t, int64(1), countAudits(t, db, models.AuditActionRepair))
}

func TestFixOpenLotWithClosedAuction(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	auction := makeAuction(t, db, models.AuctionStatusClosed)
	lot := makeLot(t, db, auction.ID, models.LotStatusOpenForBids)
	asset := makeAsset(t, db, models.AssetStatusLotted)
	makeLink(t, db, lot.ID, asset.ID)

	result, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)

	// 标的强制关闭，级联摘除关联并回退资产
	assert.Equal(t, models.ScanStatusFixed, result.Status)
	assert.Equal(t, models.LotStatusClosed, reloadLot(t, db, lot.ID).Status)
	assert.Equal(t, int64(0), countLinks(t, db, lot.ID, asset.ID))
	assert.Equal(t, models.AssetStatusAvailable, reloadAsset(t, db, asset.ID).Status)
	assert.True(t, result.Remaining.Clean())
}

func TestFixOpenLotWithoutAssets(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	lot := makeLot(t, db, auction.ID, models.LotStatusComingSoon)

	result, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)

	assert.Equal(t, models.ScanStatusFixed, result.Status)
	assert.Equal(t, models.LotStatusDraft, reloadLot(t, db, lot.ID).Status)
	assert.True(t, result.Remaining.Clean())
}

func TestFixLottedAssetWithoutLink(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	asset := makeAsset(t, db, models.AssetStatusLotted)

	result, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)

	assert.Equal(t, models.ScanStatusFixed, result.Status)
	assert.Equal(t, models.AssetStatusAvailable, reloadAsset(t, db, asset.ID).Status)
	assert.True(t, result.Remaining.Clean())
}

func TestFixAssetInLotNotLotted(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	lot := makeLot(t, db, auction.ID, models.LotStatusOpenForBids)
	asset := makeAsset(t, db, models.AssetStatusAvailable)
	makeLink(t, db, lot.ID, asset.ID)

	result, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)

	assert.Equal(t, models.ScanStatusFixed, result.Status)
	assert.Equal(t, models.AssetStatusLotted, reloadAsset(t, db, asset.ID).Status)
	assert.True(t, result.Remaining.Clean())
}

func TestFixIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	auction := makeAuction(t, db, models.AuctionStatusClosed)
	lot := makeLot(t, db, auction.ID, models.LotStatusOpenForBids)
	asset := makeAsset(t, db, models.AssetStatusLotted)
	makeLink(t, db, lot.ID, asset.ID)

	first, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusFixed, first.Status)

	// 第二次扫描无事可做
	second, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusClean, second.Status)
	assert.Equal(t, 0, second.RepairsApplied)

	// 状态不再变化
	assert.Equal(t, models.LotStatusClosed, reloadLot(t, db, lot.ID).Status)
	assert.Equal(t, models.AssetStatusAvailable, reloadAsset(t, db, asset.ID).Status)
}

func TestFixMixedViolationsThenValidateClean(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)
	validator := NewConsistencyValidator(db)

	// 同时布置多类脏数据
	openAuction := makeAuction(t, db, models.AuctionStatusOpen)
	makeLot(t, db, openAuction.ID, models.LotStatusDraft)

	closedAuction := makeAuction(t, db, models.AuctionStatusClosed)
	staleLot := makeLot(t, db, closedAuction.ID, models.LotStatusOpenForBids)
	staleAsset := makeAsset(t, db, models.AssetStatusLotted)
	makeLink(t, db, staleLot.ID, staleAsset.ID)

	makeAsset(t, db, models.AssetStatusLotted) // 无关联

	result, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusFixed, result.Status)
	assert.GreaterOrEqual(t, result.RepairsApplied, 3)

	// 修复后全量校验必须干净
	report, err := validator.ValidateTenant(testTenantID)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestScanPersistsRun(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	makeLot(t, db, auction.ID, models.LotStatusDraft)

	result, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)

	runs, total, err := svc.GetRuns(testTenantID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].RunID)
	assert.Equal(t, models.ScanStatusFixed, runs[0].Status)
	assert.Equal(t, 1, runs[0].ViolationCount)
	assert.Equal(t, 1, runs[0].RepairsApplied)

	run, err := svc.GetRunByID(testTenantID, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.ScanModeFix, run.Mode)

	// 跨租户不可见
	_, err = svc.GetRunByID(99, result.RunID)
	assert.Error(t, err)
}

func TestRenderText(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, testLogger(), 3)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	makeLot(t, db, auction.ID, models.LotStatusDraft)

	result, err := svc.Scan(testTenantID, models.ScanModeFix)
	require.NoError(t, err)

	text := RenderText(result)
	assert.Contains(t, text, result.RunID)
	assert.Contains(t, text, string(ViolationOpenAuctionWithDraftLot))
	assert.True(t, strings.Contains(text, "修复应用"))
}
