package handlers

import (
	"bidexpert/internal/models"
	"bidexpert/internal/services"
	"bidexpert/pkg/jwt"
	"bidexpert/pkg/pagination"
	"bidexpert/pkg/response"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// AuctionHandler 拍卖会处理器
type AuctionHandler struct {
	auctionService *services.AuctionService
}

// NewAuctionHandler 创建拍卖会处理器实例
func NewAuctionHandler(auctionService *services.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctionService: auctionService}
}

// Create 创建拍卖会
func (h *AuctionHandler) Create(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	var req struct {
		Code        string     `json:"code" binding:"required,min=1,max=50"`
		Title       string     `json:"title" binding:"required,min=1,max=200"`
		Description string     `json:"description" binding:"max=1000"`
		StartAt     *time.Time `json:"start_at"`
		EndAt       *time.Time `json:"end_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	auction := &models.Auction{
		TenantID:    claims.CurrentTenantID,
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		CreatedBy:   claims.UserID,
		UpdatedBy:   claims.UserID,
	}

	if err := h.auctionService.Create(auction); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, auction)
}

// Get 获取拍卖会详情
func (h *AuctionHandler) Get(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的拍卖会ID")
		return
	}

	auction, err := h.auctionService.GetByID(uint(id), claims.CurrentTenantID)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, auction)
}

// List 分页查询拍卖会
func (h *AuctionHandler) List(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)
	pageParams := pagination.ParsePageParams(c)

	auctions, total, err := h.auctionService.GetWithFiltersAndPage(
		claims.CurrentTenantID, c.Query("status"), c.Query("keyword"),
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, auctions, pageInfo)
}

// Update 更新拍卖会基础字段
func (h *AuctionHandler) Update(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的拍卖会ID")
		return
	}

	var req struct {
		Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
		Description *string    `json:"description" binding:"omitempty,max=1000"`
		StartAt     *time.Time `json:"start_at"`
		EndAt       *time.Time `json:"end_at"`
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
	if req.StartAt != nil {
		updates["start_at"] = req.StartAt
	}
	if req.EndAt != nil {
		updates["end_at"] = req.EndAt
	}

	if err := h.auctionService.Update(uint(id), claims.CurrentTenantID, updates); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "拍卖会已更新", nil)
}

// UpdateStatus 执行拍卖会状态转换
func (h *AuctionHandler) UpdateStatus(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的拍卖会ID")
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
	rejection, err := h.auctionService.UpdateStatus(uint(id), claims.CurrentTenantID,
		models.AuctionStatus(req.Status), actor)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if rejection != nil {
		response.Conflict(c, rejection.Message)
		return
	}

	response.SuccessWithMessage(c, "拍卖会状态已更新", nil)
}

// Delete 删除拍卖会
func (h *AuctionHandler) Delete(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的拍卖会ID")
		return
	}

	if err := h.auctionService.Delete(uint(id), claims.CurrentTenantID); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "拍卖会已删除", nil)
}
