package services

import (
	"testing"

	"bidexpert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func violationsOfType(report *ViolationReport, vt ViolationType) []Violation {
	var out []Violation
	for _, v := range report.Violations {
		if v.Type == vt {
			out = append(out, v)
		}
	}
	return out
}

func TestValidateTenantClean(t *testing.T) {
	db := newTestDB(t)
	validator := NewConsistencyValidator(db)

	// 一套完全一致的数据
	auction := makeAuction(t, db, models.AuctionStatusOpen)
	lot := makeLot(t, db, auction.ID, models.LotStatusOpenForBids)
	asset := makeAsset(t, db, models.AssetStatusLotted)
	makeLink(t, db, lot.ID, asset.ID)

	report, err := validator.ValidateTenant(testTenantID)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Empty(t, report.Violations)
}

func TestValidateDetectsOpenAuctionWithDraftLot(t *testing.T) {
	db := newTestDB(t)
	validator := NewConsistencyValidator(db)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	lot := makeLot(t, db, auction.ID, models.LotStatusDraft)

	report, err := validator.ValidateTenant(testTenantID)
	require.NoError(t, err)

	found := violationsOfType(report, ViolationOpenAuctionWithDraftLot)
	require.Len(t, found, 1)
	assert.Equal(t, auction.ID, found[0].EntityID)
	assert.Equal(t, lot.ID, found[0].RelatedID)
	assert.Equal(t, testTenantID, found[0].TenantID)
	assert.True(t, found[0].AutoFixable)
}

func TestValidateDetectsOpenLotWithClosedAuction(t *testing.T) {
	db := newTestDB(t)
	validator := NewConsistencyValidator(db)

	auction := makeAuction(t, db, models.AuctionStatusClosed)
	lot := makeLot(t, db, auction.ID, models.LotStatusOpenForBids)
	asset := makeAsset(t, db, models.AssetStatusLotted)
	makeLink(t, db, lot.ID, asset.ID)

	report, err := validator.ValidateTenant(testTenantID)
	require.NoError(t, err)

	found := violationsOfType(report, ViolationOpenLotWithClosedAuction)
	require.Len(t, found, 1)
	assert.Equal(t, lot.ID, found[0].EntityID)
	assert.Equal(t, auction.ID, found[0].RelatedID)
}

func TestValidateDetectsOpenLotWithoutAssets(t *testing.T) {
	db := newTestDB(t)
	validator := NewConsistencyValidator(db)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	empty := makeLot(t, db, auction.ID, models.LotStatusComingSoon)
	// 已结束的空标的不算违规
	makeLot(t, db, auction.ID, models.LotStatusClosed)

	report, err := validator.ValidateTenant(testTenantID)
	require.NoError(t, err)

	found := violationsOfType(report, ViolationOpenLotWithoutAssets)
	require.Len(t, found, 1)
	assert.Equal(t, empty.ID, found[0].EntityID)
}

func TestValidateDetectsLottedAssetWithoutLink(t *testing.T) {
	db := newTestDB(t)
	validator := NewConsistencyValidator(db)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	closedLot := makeLot(t, db, auction.ID, models.LotStatusClosed)

	// 完全没有关联
	orphan := makeAsset(t, db, models.AssetStatusLotted)
	// 只剩指向已结束标的的残留关联，同样视为无活跃关联
	stale := makeAsset(t, db, models.AssetStatusLotted)
	makeLink(t, db, closedLot.ID, stale.ID)

	report, err := validator.ValidateTenant(testTenantID)
	require.NoError(t, err)

	found := violationsOfType(report, ViolationLottedAssetWithoutLink)
	require.Len(t, found, 2)
	ids := []uint{found[0].EntityID, found[1].EntityID}
	assert.ElementsMatch(t, []uint{orphan.ID, stale.ID}, ids)
}

func TestValidateDetectsAssetInLotNotLotted(t *testing.T) {
	db := newTestDB(t)
	validator := NewConsistencyValidator(db)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	lot := makeLot(t, db, auction.ID, models.LotStatusOpenForBids)

	wrong := makeAsset(t, db, models.AssetStatusAvailable)
	makeLink(t, db, lot.ID, wrong.ID)

	// 终态资产豁免：已售出资产留在标的关联里不算违规
	sold := makeAsset(t, db, models.AssetStatusSold)
	makeLink(t, db, lot.ID, sold.ID)

	report, err := validator.ValidateTenant(testTenantID)
	require.NoError(t, err)

	found := violationsOfType(report, ViolationAssetInLotNotLotted)
	require.Len(t, found, 1)
	assert.Equal(t, wrong.ID, found[0].EntityID)
}

func TestValidateEntityScoped(t *testing.T) {
	db := newTestDB(t)
	validator := NewConsistencyValidator(db)

	// 两个各自违规的拍卖会
	auctionA := makeAuction(t, db, models.AuctionStatusOpen)
	makeLot(t, db, auctionA.ID, models.LotStatusDraft)
	auctionB := makeAuction(t, db, models.AuctionStatusOpen)
	makeLot(t, db, auctionB.ID, models.LotStatusDraft)

	// 单实体校验只报告目标实体的违规
	report, err := validator.ValidateEntity(testTenantID, models.EntityTypeAuction, auctionA.ID)
	require.NoError(t, err)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, auctionA.ID, report.Violations[0].EntityID)

	// 全量校验两个都报告
	report, err = validator.ValidateTenant(testTenantID)
	require.NoError(t, err)
	assert.Len(t, violationsOfType(report, ViolationOpenAuctionWithDraftLot), 2)
}

func TestValidateTenantIsolation(t *testing.T) {
	db := newTestDB(t)
	validator := NewConsistencyValidator(db)

	require.NoError(t, db.Create(&models.Tenant{Name: "其他租户", Code: "other"}).Error)

	// 违规数据在租户2名下
	auction := &models.Auction{TenantID: 2, Code: "X-1", Title: "跨租户", Status: models.AuctionStatusOpen}
	require.NoError(t, db.Create(auction).Error)
	lot := &models.Lot{TenantID: 2, AuctionID: auction.ID, Number: 1, Title: "跨租户标的", Status: models.LotStatusDraft}
	require.NoError(t, db.Create(lot).Error)

	// 租户1扫描不受影响
	report, err := validator.ValidateTenant(testTenantID)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	report, err = validator.ValidateTenant(2)
	require.NoError(t, err)
	assert.Len(t, report.Violations, 1)
	assert.Equal(t, uint(2), report.Violations[0].TenantID)
}

func TestReportCounts(t *testing.T) {
	db := newTestDB(t)
	validator := NewConsistencyValidator(db)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	makeLot(t, db, auction.ID, models.LotStatusDraft)
	makeLot(t, db, auction.ID, models.LotStatusComingSoon) // 同时触发"无资产"

	report, err := validator.ValidateTenant(testTenantID)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, 1, report.CountsByType[ViolationOpenAuctionWithDraftLot])
	assert.Equal(t, 1, report.CountsByType[ViolationOpenLotWithoutAssets])
}
