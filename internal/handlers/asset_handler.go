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

// AssetHandler 资产处理器
type AssetHandler struct {
	assetService *services.AssetService
}

// NewAssetHandler 创建资产处理器实例
func NewAssetHandler(assetService *services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// Create 创建资产
func (h *AssetHandler) Create(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	var req struct {
		Code        string `json:"code" binding:"required,min=1,max=50"`
		Title       string `json:"title" binding:"required,min=1,max=200"`
		Description string `json:"description" binding:"max=1000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	asset := &models.Asset{
		TenantID:    claims.CurrentTenantID,
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   claims.UserID,
		UpdatedBy:   claims.UserID,
	}

	if err := h.assetService.Create(asset); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, asset)
}

// Get 获取资产详情
func (h *AssetHandler) Get(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的资产ID")
		return
	}

	asset, err := h.assetService.GetByID(uint(id), claims.CurrentTenantID)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, asset)
}

// List 分页查询资产
func (h *AssetHandler) List(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)
	pageParams := pagination.ParsePageParams(c)

	assets, total, err := h.assetService.GetWithFiltersAndPage(
		claims.CurrentTenantID, c.Query("status"), c.Query("keyword"),
		pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, assets, pageInfo)
}

// Update 更新资产基础字段
func (h *AssetHandler) Update(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的资产ID")
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

	if err := h.assetService.Update(uint(id), claims.CurrentTenantID, updates); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "资产已更新", nil)
}

// UpdateStatus 执行资产状态转换
func (h *AssetHandler) UpdateStatus(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的资产ID")
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
	rejection, err := h.assetService.UpdateStatus(uint(id), claims.CurrentTenantID,
		models.AssetStatus(req.Status), actor)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if rejection != nil {
		response.Conflict(c, rejection.Message)
		return
	}

	response.SuccessWithMessage(c, "资产状态已更新", nil)
}

// Delete 删除资产
func (h *AssetHandler) Delete(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的资产ID")
		return
	}

	rejection, err := h.assetService.Delete(uint(id), claims.CurrentTenantID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if rejection != nil {
		response.Conflict(c, rejection.Message)
		return
	}

	response.SuccessWithMessage(c, "资产已删除", nil)
}
