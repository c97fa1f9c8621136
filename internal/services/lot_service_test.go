package services

import (
	"testing"

	"bidexpert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotCreate(t *testing.T) {
	db := newTestDB(t)
	svc := NewLotService(db)

	auction := makeAuction(t, db, models.AuctionStatusDraft)

	lot := &models.Lot{
		TenantID:  testTenantID,
		AuctionID: auction.ID,
		Number:    1,
		Title:     "一号标的",
		Status:    models.LotStatusOpenForBids, // 创建时强制回到草稿
	}
	rej, err := svc.Create(lot)
	require.NoError(t, err)
	assert.Nil(t, rej)
	assert.Equal(t, models.LotStatusDraft, reloadLot(t, db, lot.ID).Status)

	t.Run("标的号冲突", func(t *testing.T) {
		_, err := svc.Create(&models.Lot{
			TenantID: testTenantID, AuctionID: auction.ID, Number: 1, Title: "重复",
		})
		assert.Error(t, err)
	})

	t.Run("已结束拍卖会拒绝新增", func(t *testing.T) {
		closed := makeAuction(t, db, models.AuctionStatusCancelled)
		rej, err := svc.Create(&models.Lot{
			TenantID: testTenantID, AuctionID: closed.ID, Number: 1, Title: "迟到",
		})
		require.NoError(t, err)
		require.NotNil(t, rej)
		assert.Equal(t, RejectAuctionClosed, rej.Code)
	})
}

func TestLotLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewLotService(db)
	linkingSvc := NewLinkingService(db)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	lot := makeLot(t, db, auction.ID, models.LotStatusDraft)
	asset := makeAsset(t, db, models.AssetStatusAvailable)

	// 草稿 -> 预告
	rej, err := svc.UpdateStatus(lot.ID, testTenantID, models.LotStatusComingSoon, "user:1")
	require.NoError(t, err)
	require.Nil(t, rej)

	// 无资产时不能开始竞价
	rej, err = svc.UpdateStatus(lot.ID, testTenantID, models.LotStatusOpenForBids, "user:1")
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectLotWithoutAssets, rej.Code)

	// 挂接资产后放行
	rej, err = linkingSvc.Link(testTenantID, lot.ID, asset.ID, 1)
	require.NoError(t, err)
	require.Nil(t, rej)
	rej, err = svc.UpdateStatus(lot.ID, testTenantID, models.LotStatusOpenForBids, "user:1")
	require.NoError(t, err)
	require.Nil(t, rej)

	// 成交进入结束族，关联级联摘除
	rej, err = svc.UpdateStatus(lot.ID, testTenantID, models.LotStatusSold, "user:1")
	require.NoError(t, err)
	require.Nil(t, rej)
	assert.Equal(t, models.LotStatusSold, reloadLot(t, db, lot.ID).Status)
	assert.Equal(t, int64(0), countLinks(t, db, lot.ID, asset.ID))
	assert.Equal(t, models.AssetStatusAvailable, reloadAsset(t, db, asset.ID).Status)
}

func TestLotFrozenAfterAuctionClosed(t *testing.T) {
	db := newTestDB(t)
	svc := NewLotService(db)

	auction := makeAuction(t, db, models.AuctionStatusFinalized)
	lot := makeLot(t, db, auction.ID, models.LotStatusClosed)

	// 字段修改与状态转换一律冻结
	rej, err := svc.Update(lot.ID, testTenantID, map[string]interface{}{"title": "改名"})
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectAuctionClosed, rej.Code)

	rej, err = svc.UpdateStatus(lot.ID, testTenantID, models.LotStatusSold, "user:1")
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectAuctionClosed, rej.Code)
}

func TestAssetDeleteService(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssetService(db)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	closedLot := makeLot(t, db, auction.ID, models.LotStatusClosed)

	// 仅剩历史关联的资产可删，残留关联一并清理
	asset := makeAsset(t, db, models.AssetStatusAvailable)
	makeLink(t, db, closedLot.ID, asset.ID)

	rej, err := svc.Delete(asset.ID, testTenantID)
	require.NoError(t, err)
	assert.Nil(t, rej)
	assert.Equal(t, int64(0), countLinks(t, db, closedLot.ID, asset.ID))

	var count int64
	require.NoError(t, db.Model(&models.Asset{}).Where("id = ?", asset.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// 被未结束标的引用的资产不可删
	openLot := makeLot(t, db, auction.ID, models.LotStatusOpenForBids)
	linked := makeAsset(t, db, models.AssetStatusLotted)
	makeLink(t, db, openLot.ID, linked.ID)

	rej, err = svc.Delete(linked.ID, testTenantID)
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectAssetLinkedActive, rej.Code)
}
