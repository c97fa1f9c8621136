// Package status 是三类实体状态机的唯一事实来源：
// 合法状态集合、状态间的转换图、以及状态族（草稿族/开放族/结束族）的归属。
// 交互路径（TransitionGuard）和批处理路径（ConsistencyValidator/ReconciliationScanner）
// 查询的都是这一张表，规则不会出现两份定义。
// 纯查表，不访问存储，不返回错误。
package status

import (
	"bidexpert/internal/models"
)

// 拍卖会状态转换图
// 对账修复动作用到的回退边（open -> in_preparation）也在表内，
// 保证修复路径与人工转换路径遵循同一张图
var auctionTransitions = map[models.AuctionStatus][]models.AuctionStatus{
	models.AuctionStatusDraft:         {models.AuctionStatusInPreparation, models.AuctionStatusCancelled},
	models.AuctionStatusInPreparation: {models.AuctionStatusDraft, models.AuctionStatusOpen, models.AuctionStatusCancelled},
	models.AuctionStatusOpen:          {models.AuctionStatusOpenForBids, models.AuctionStatusInPreparation, models.AuctionStatusSuspended, models.AuctionStatusClosed, models.AuctionStatusCancelled},
	models.AuctionStatusOpenForBids:   {models.AuctionStatusOpen, models.AuctionStatusSuspended, models.AuctionStatusClosed, models.AuctionStatusCancelled},
	models.AuctionStatusSuspended:     {models.AuctionStatusOpen, models.AuctionStatusOpenForBids, models.AuctionStatusClosed, models.AuctionStatusCancelled},
	models.AuctionStatusClosed:        {models.AuctionStatusFinalized},
	models.AuctionStatusFinalized:     {},
	models.AuctionStatusCancelled:     {},
}

// 标的状态转换图
// open_for_bids/coming_soon -> draft 是"无资产标的"修复动作的回退边，
// open_for_bids -> closed 是拍卖会关闭的级联边
var lotTransitions = map[models.LotStatus][]models.LotStatus{
	models.LotStatusDraft:       {models.LotStatusComingSoon, models.LotStatusWithdrawn, models.LotStatusCancelled},
	models.LotStatusComingSoon:  {models.LotStatusDraft, models.LotStatusOpenForBids, models.LotStatusClosed, models.LotStatusWithdrawn, models.LotStatusCancelled},
	models.LotStatusOpenForBids: {models.LotStatusDraft, models.LotStatusClosed, models.LotStatusSold, models.LotStatusUnsold, models.LotStatusWithdrawn, models.LotStatusCancelled},
	models.LotStatusClosed:      {models.LotStatusSold, models.LotStatusUnsold},
	models.LotStatusSold:        {},
	models.LotStatusUnsold:      {},
	models.LotStatusCancelled:   {},
	models.LotStatusWithdrawn:   {},
}

// 资产状态转换图，sold/removed为终态
var assetTransitions = map[models.AssetStatus][]models.AssetStatus{
	models.AssetStatusAvailable: {models.AssetStatusLotted, models.AssetStatusRemoved},
	models.AssetStatusLotted:    {models.AssetStatusAvailable, models.AssetStatusSold},
	models.AssetStatusSold:      {},
	models.AssetStatusRemoved:   {},
}

// 状态族定义
var (
	auctionDraftFamily  = statusSet(models.AuctionStatusDraft, models.AuctionStatusInPreparation)
	auctionOpenFamily   = statusSet(models.AuctionStatusOpen, models.AuctionStatusOpenForBids)
	auctionClosedFamily = statusSet(models.AuctionStatusClosed, models.AuctionStatusFinalized, models.AuctionStatusCancelled)
	// suspended 不属于任何族：竞价暂停但拍卖会未结束

	lotDraftFamily  = statusSet(models.LotStatusDraft)
	lotOpenFamily   = statusSet(models.LotStatusComingSoon, models.LotStatusOpenForBids)
	lotClosedFamily = statusSet(models.LotStatusClosed, models.LotStatusSold, models.LotStatusUnsold, models.LotStatusCancelled, models.LotStatusWithdrawn)

	assetOpenFamily   = statusSet(models.AssetStatusLotted)
	assetClosedFamily = statusSet(models.AssetStatusSold, models.AssetStatusRemoved)
)

// 按实体类型展开的通用查询表
var (
	transitions  = map[models.EntityType]map[string][]string{}
	draftFamily  = map[models.EntityType]map[string]bool{}
	openFamily   = map[models.EntityType]map[string]bool{}
	closedFamily = map[models.EntityType]map[string]bool{}
)

func init() {
	transitions[models.EntityTypeAuction] = flatten(auctionTransitions)
	transitions[models.EntityTypeLot] = flatten(lotTransitions)
	transitions[models.EntityTypeAsset] = flatten(assetTransitions)

	draftFamily[models.EntityTypeAuction] = auctionDraftFamily
	draftFamily[models.EntityTypeLot] = lotDraftFamily
	draftFamily[models.EntityTypeAsset] = map[string]bool{}

	openFamily[models.EntityTypeAuction] = auctionOpenFamily
	openFamily[models.EntityTypeLot] = lotOpenFamily
	openFamily[models.EntityTypeAsset] = assetOpenFamily

	closedFamily[models.EntityTypeAuction] = auctionClosedFamily
	closedFamily[models.EntityTypeLot] = lotClosedFamily
	closedFamily[models.EntityTypeAsset] = assetClosedFamily
}

func statusSet[T ~string](statuses ...T) map[string]bool {
	set := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		set[string(s)] = true
	}
	return set
}

func flatten[T ~string](graph map[T][]T) map[string][]string {
	out := make(map[string][]string, len(graph))
	for from, tos := range graph {
		targets := make([]string, 0, len(tos))
		for _, to := range tos {
			targets = append(targets, string(to))
		}
		out[string(from)] = targets
	}
	return out
}

// IsValid 状态是否属于该实体类型的合法状态集合
func IsValid(entityType models.EntityType, status string) bool {
	_, ok := transitions[entityType][status]
	return ok
}

// LegalTransitions 返回从fromStatus出发的全部合法目标状态
func LegalTransitions(entityType models.EntityType, fromStatus string) []string {
	return transitions[entityType][fromStatus]
}

// CanTransition 判断 from -> to 是否为图中的合法边
func CanTransition(entityType models.EntityType, fromStatus, toStatus string) bool {
	for _, s := range transitions[entityType][fromStatus] {
		if s == toStatus {
			return true
		}
	}
	return false
}

// IsDraftFamily 是否属于草稿族（未发布）
func IsDraftFamily(entityType models.EntityType, status string) bool {
	return draftFamily[entityType][status]
}

// IsOpenFamily 是否属于开放族（对外可见/交易中）
func IsOpenFamily(entityType models.EntityType, status string) bool {
	return openFamily[entityType][status]
}

// IsClosedFamily 是否属于结束族（终局状态）
func IsClosedFamily(entityType models.EntityType, status string) bool {
	return closedFamily[entityType][status]
}
