package handlers

import (
	"bidexpert/internal/models"
	"bidexpert/internal/services"
	"bidexpert/pkg/jwt"
	"bidexpert/pkg/pagination"
	"bidexpert/pkg/response"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// LotHandler 标的处理器
type LotHandler struct {
	lotService     *services.LotService
	linkingService *services.LinkingService
}

// NewLotHandler 创建标的处理器实例
func NewLotHandler(lotService *services.LotService, linkingService *services.LinkingService) *LotHandler {
	return &LotHandler{
		lotService:     lotService,
		linkingService: linkingService,
	}
}

// Create 创建标的
func (h *LotHandler) Create(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	var req struct {
		AuctionID   uint   `json:"auction_id" binding:"required"`
		Number      int    `json:"number" binding:"required,min=1"`
		Title       string `json:"title" binding:"required,min=1,max=200"`
		Description string `json:"description" binding:"max=1000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	lot := &models.Lot{
		TenantID:    claims.CurrentTenantID,
		AuctionID:   req.AuctionID,
		Number:      req.Number,
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   claims.UserID,
		UpdatedBy:   claims.UserID,
	}

	rejection, err := h.lotService.Create(lot)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if rejection != nil {
		response.Conflict(c, rejection.Message)
		return
	}

	response.Success(c, lot)
}

// Get 获取标的详情
func (h *LotHandler) Get(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的标的ID")
		return
	}

	lot, err := h.lotService.GetByID(uint(id), claims.CurrentTenantID)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, lot)
}

// List 分页查询标的
func (h *LotHandler) List(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)
	pageParams := pagination.ParsePageParams(c)

	var auctionID uint
	if v := c.Query("auction_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "无效的拍卖会ID")
			return
		}
		auctionID = uint(parsed)
	}

	lots, total, err := h.lotService.GetWithFiltersAndPage(
		claims.CurrentTenantID, auctionID, c.Query("status"),
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, lots, pageInfo)
}

// Update 更新标的基础字段
func (h *LotHandler) Update(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的标的ID")
		return
	}

	var req struct {
		Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
		Description *string `json:"description" binding:"omitempty,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{"updated_by": claims.UserID}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	rejection, err := h.lotService.Update(uint(id), claims.CurrentTenantID, updates)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if rejection != nil {
		response.Conflict(c, rejection.Message)
		return
	}

	response.SuccessWithMessage(c, "标的已更新", nil)
}

// UpdateStatus 执行标的状态转换
func (h *LotHandler) UpdateStatus(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的标的ID")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actor := fmt.Sprintf("user:%d", claims.UserID)
	rejection, err := h.lotService.UpdateStatus(uint(id), claims.CurrentTenantID,
		models.LotStatus(req.Status), actor)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if rejection != nil {
		response.Conflict(c, rejection.Message)
		return
	}

	response.SuccessWithMessage(c, "标的状态已更新", nil)
}

// LinkAsset 挂接资产
func (h *LotHandler) LinkAsset(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	lotID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的标的ID")
		return
	}
	assetID, err := strconv.ParseUint(c.Param("assetId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的资产ID")
		return
	}

	rejection, err := h.linkingService.Link(claims.CurrentTenantID, uint(lotID), uint(assetID), claims.UserID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if rejection != nil {
		response.Conflict(c, rejection.Message)
		return
	}

	response.SuccessWithMessage(c, "资产已挂接", nil)
}

// UnlinkAsset 摘除资产
func (h *LotHandler) UnlinkAsset(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	lotID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的标的ID")
		return
	}
	assetID, err := strconv.ParseUint(c.Param("assetId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的资产ID")
		return
	}

	actor := fmt.Sprintf("user:%d", claims.UserID)
	if err := h.linkingService.Unlink(claims.CurrentTenantID, uint(lotID), uint(assetID), actor); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "资产已摘除", nil)
}

// Delete 删除标的
func (h *LotHandler) Delete(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的标的ID")
		return
	}

	rejection, err := h.lotService.Delete(uint(id), claims.CurrentTenantID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if rejection != nil {
		response.Conflict(c, rejection.Message)
		return
	}

	response.SuccessWithMessage(c, "标的已删除", nil)
}
