package services

import (
	"testing"

	"bidexpert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuctionCreate(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuctionService(db)

	auction := &models.Auction{
		TenantID: testTenantID,
		Code:     "SPRING-2026",
		Title:    "春季拍卖会",
		Status:   models.AuctionStatusOpen, // 创建时强制回到草稿
	}
	require.NoError(t, svc.Create(auction))
	assert.Equal(t, models.AuctionStatusDraft, reloadAuction(t, db, auction.ID).Status)

	// 编号在租户内唯一
	err := svc.Create(&models.Auction{TenantID: testTenantID, Code: "SPRING-2026", Title: "重复"})
	assert.Error(t, err)
}

func TestAuctionUpdateStatusRecordsAudit(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuctionService(db)

	auction := makeAuction(t, db, models.AuctionStatusDraft)

	rej, err := svc.UpdateStatus(auction.ID, testTenantID, models.AuctionStatusInPreparation, "user:1")
	require.NoError(t, err)
	assert.Nil(t, rej)
	assert.Equal(t, models.AuctionStatusInPreparation, reloadAuction(t, db, auction.ID).Status)
	assert.Equal(t, int64(1), countAudits(t, db, models.AuditActionTransition))

	// 被拒的转换既不落库也不记审计
	rej, err = svc.UpdateStatus(auction.ID, testTenantID, models.AuctionStatusFinalized, "user:1")
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectIllegalTransition, rej.Code)
	assert.Equal(t, models.AuctionStatusInPreparation, reloadAuction(t, db, auction.ID).Status)
	assert.Equal(t, int64(1), countAudits(t, db, models.AuditActionTransition))
}

func TestAuctionCloseCascadesToLotsAndAssets(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuctionService(db)
	linkingSvc := NewLinkingService(db)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	openLot := makeLot(t, db, auction.ID, models.LotStatusOpenForBids)
	soldLot := makeLot(t, db, auction.ID, models.LotStatusSold)
	asset := makeAsset(t, db, models.AssetStatusAvailable)

	rej, err := linkingSvc.Link(testTenantID, openLot.ID, asset.ID, 1)
	require.NoError(t, err)
	require.Nil(t, rej)

	rej, err = svc.UpdateStatus(auction.ID, testTenantID, models.AuctionStatusClosed, "user:1")
	require.NoError(t, err)
	require.Nil(t, rej)

	// 开放标的被级联关闭，已终局的标的不动
	assert.Equal(t, models.LotStatusClosed, reloadLot(t, db, openLot.ID).Status)
	assert.Equal(t, models.LotStatusSold, reloadLot(t, db, soldLot.ID).Status)

	// 资产关联被摘除并回退可上拍
	assert.Equal(t, int64(0), countLinks(t, db, openLot.ID, asset.ID))
	assert.Equal(t, models.AssetStatusAvailable, reloadAsset(t, db, asset.ID).Status)
	assert.Equal(t, int64(1), countAudits(t, db, models.AuditActionCascade))

	// 关闭后整个数据集保持一致
	report, err := NewConsistencyValidator(db).ValidateTenant(testTenantID)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestAuctionDeleteRules(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuctionService(db)

	t.Run("草稿无标的可删", func(t *testing.T) {
		auction := makeAuction(t, db, models.AuctionStatusDraft)
		require.NoError(t, svc.Delete(auction.ID, testTenantID))
	})

	t.Run("有标的不可删", func(t *testing.T) {
		auction := makeAuction(t, db, models.AuctionStatusDraft)
		makeLot(t, db, auction.ID, models.LotStatusDraft)
		assert.Error(t, svc.Delete(auction.ID, testTenantID))
	})

	t.Run("非草稿不可删", func(t *testing.T) {
		auction := makeAuction(t, db, models.AuctionStatusOpen)
		assert.Error(t, svc.Delete(auction.ID, testTenantID))
	})
}
