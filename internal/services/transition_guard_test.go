package services

import (
	"testing"

	"bidexpert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeGraphRules(t *testing.T) {
	db := newTestDB(t)
	guard := NewTransitionGuard(db)

	auction := makeAuction(t, db, models.AuctionStatusDraft)

	t.Run("合法边放行", func(t *testing.T) {
		rej, err := guard.Authorize(nil, testTenantID, models.EntityTypeAuction, auction.ID, string(models.AuctionStatusInPreparation))
		require.NoError(t, err)
		assert.Nil(t, rej)
	})

	t.Run("非法边拒绝", func(t *testing.T) {
		rej, err := guard.Authorize(nil, testTenantID, models.EntityTypeAuction, auction.ID, string(models.AuctionStatusOpenForBids))
		require.NoError(t, err)
		require.NotNil(t, rej)
		assert.Equal(t, RejectIllegalTransition, rej.Code)
	})

	t.Run("未知状态拒绝", func(t *testing.T) {
		rej, err := guard.Authorize(nil, testTenantID, models.EntityTypeAuction, auction.ID, "archived")
		require.NoError(t, err)
		require.NotNil(t, rej)
		assert.Equal(t, RejectUnknownStatus, rej.Code)
	})

	t.Run("跨租户不可见", func(t *testing.T) {
		_, err := guard.Authorize(nil, 99, models.EntityTypeAuction, auction.ID, string(models.AuctionStatusInPreparation))
		assert.Error(t, err)
	})
}

func TestAuthorizeAuctionOpenBlockedByDraftLots(t *testing.T) {
	db := newTestDB(t)
	guard := NewTransitionGuard(db)

	auction := makeAuction(t, db, models.AuctionStatusInPreparation)
	draftLot := makeLot(t, db, auction.ID, models.LotStatusDraft)
	makeLot(t, db, auction.ID, models.LotStatusComingSoon)

	// 草稿标的在场，公开被拒且点名标的
	rej, err := guard.Authorize(nil, testTenantID, models.EntityTypeAuction, auction.ID, string(models.AuctionStatusOpen))
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectLotsStillDraft, rej.Code)
	require.Len(t, rej.Entities, 1)
	assert.Equal(t, draftLot.ID, rej.Entities[0].ID)

	// 被拒不落库
	assert.Equal(t, models.AuctionStatusInPreparation, reloadAuction(t, db, auction.ID).Status)

	// 草稿标的清场后放行
	require.NoError(t, db.Model(&models.Lot{}).Where("id = ?", draftLot.ID).
		Update("status", models.LotStatusComingSoon).Error)
	rej, err = guard.Authorize(nil, testTenantID, models.EntityTypeAuction, auction.ID, string(models.AuctionStatusOpen))
	require.NoError(t, err)
	assert.Nil(t, rej)
}

func TestAuthorizeLotOpenForBidsPreconditions(t *testing.T) {
	t.Run("父拍卖会未公开", func(t *testing.T) {
		db := newTestDB(t)
		guard := NewTransitionGuard(db)

		auction := makeAuction(t, db, models.AuctionStatusInPreparation)
		lot := makeLot(t, db, auction.ID, models.LotStatusComingSoon)
		asset := makeAsset(t, db, models.AssetStatusLotted)
		makeLink(t, db, lot.ID, asset.ID)

		rej, err := guard.Authorize(nil, testTenantID, models.EntityTypeLot, lot.ID, string(models.LotStatusOpenForBids))
		require.NoError(t, err)
		require.NotNil(t, rej)
		assert.Equal(t, RejectAuctionNotOpen, rej.Code)
	})

	t.Run("标的没有资产", func(t *testing.T) {
		db := newTestDB(t)
		guard := NewTransitionGuard(db)

		auction := makeAuction(t, db, models.AuctionStatusOpen)
		lot := makeLot(t, db, auction.ID, models.LotStatusComingSoon)

		rej, err := guard.Authorize(nil, testTenantID, models.EntityTypeLot, lot.ID, string(models.LotStatusOpenForBids))
		require.NoError(t, err)
		require.NotNil(t, rej)
		assert.Equal(t, RejectLotWithoutAssets, rej.Code)
	})

	t.Run("前置条件齐备放行", func(t *testing.T) {
		db := newTestDB(t)
		guard := NewTransitionGuard(db)

		auction := makeAuction(t, db, models.AuctionStatusOpen)
		lot := makeLot(t, db, auction.ID, models.LotStatusComingSoon)
		asset := makeAsset(t, db, models.AssetStatusLotted)
		makeLink(t, db, lot.ID, asset.ID)

		rej, err := guard.Authorize(nil, testTenantID, models.EntityTypeLot, lot.ID, string(models.LotStatusOpenForBids))
		require.NoError(t, err)
		assert.Nil(t, rej)
	})
}

func TestAuthorizeLotFrozenByClosedAuction(t *testing.T) {
	db := newTestDB(t)
	guard := NewTransitionGuard(db)

	auction := makeAuction(t, db, models.AuctionStatusClosed)
	lot := makeLot(t, db, auction.ID, models.LotStatusDraft)

	// 拍卖会结束后标的冻结，任何状态转换都拒绝
	rej, err := guard.Authorize(nil, testTenantID, models.EntityTypeLot, lot.ID, string(models.LotStatusComingSoon))
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectAuctionClosed, rej.Code)

	// 非状态字段的变更同样冻结
	rej, err = guard.AuthorizeLotMutation(nil, testTenantID, lot.ID)
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, RejectAuctionClosed, rej.Code)
}

func TestAuthorizeAssetTerminal(t *testing.T) {
	db := newTestDB(t)
	guard := NewTransitionGuard(db)

	sold := makeAsset(t, db, models.AssetStatusSold)
	removed := makeAsset(t, db, models.AssetStatusRemoved)

	// 终态资产的任何转换都是非法边
	for _, asset := range []*models.Asset{sold, removed} {
		rej, err := guard.Authorize(nil, testTenantID, models.EntityTypeAsset, asset.ID, string(models.AssetStatusAvailable))
		require.NoError(t, err)
		require.NotNil(t, rej)
		assert.Equal(t, RejectIllegalTransition, rej.Code)
	}
}

func TestAuthorizeAssetDelete(t *testing.T) {
	db := newTestDB(t)
	guard := NewTransitionGuard(db)

	auction := makeAuction(t, db, models.AuctionStatusOpen)
	openLot := makeLot(t, db, auction.ID, models.LotStatusOpenForBids)
	closedLot := makeLot(t, db, auction.ID, models.LotStatusClosed)

	t.Run("被未结束标的引用不可删", func(t *testing.T) {
		asset := makeAsset(t, db, models.AssetStatusLotted)
		makeLink(t, db, openLot.ID, asset.ID)

		rej, err := guard.AuthorizeAssetDelete(nil, testTenantID, asset.ID)
		require.NoError(t, err)
		require.NotNil(t, rej)
		assert.Equal(t, RejectAssetLinkedActive, rej.Code)
	})

	t.Run("仅剩已结束标的的残留关联可删", func(t *testing.T) {
		asset := makeAsset(t, db, models.AssetStatusAvailable)
		makeLink(t, db, closedLot.ID, asset.ID)

		rej, err := guard.AuthorizeAssetDelete(nil, testTenantID, asset.ID)
		require.NoError(t, err)
		assert.Nil(t, rej)
	})

	t.Run("状态仍为已入标的不可删", func(t *testing.T) {
		asset := makeAsset(t, db, models.AssetStatusLotted)

		rej, err := guard.AuthorizeAssetDelete(nil, testTenantID, asset.ID)
		require.NoError(t, err)
		require.NotNil(t, rej)
		assert.Equal(t, RejectAssetLinkedActive, rej.Code)
	})
}
