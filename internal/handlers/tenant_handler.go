package handlers

import (
	"bidexpert/internal/services"
	"bidexpert/pkg/pagination"
	"bidexpert/pkg/response"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TenantHandler 租户处理器
type TenantHandler struct {
	tenantService *services.TenantService
}

// NewTenantHandler 创建租户处理器实例
func NewTenantHandler(tenantService *services.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Create 创建租户
func (h *TenantHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,min=1,max=100"`
		Code string `json:"code" binding:"required,min=1,max=50"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.Create(req.Name, req.Code)
	if err != nil {
		if err == gorm.ErrDuplicatedKey {
			response.Conflict(c, "租户代码已存在")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, tenant)
}

// List 分页查询租户
func (h *TenantHandler) List(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	tenantStatus := c.Query("status")
	keyword := c.Query("keyword")

	tenants, total, err := h.tenantService.GetWithFiltersAndPage(tenantStatus, keyword, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, tenants, pageInfo)
}

// UpdateStatus 启用/停用租户
func (h *TenantHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的租户ID")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=active inactive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.tenantService.UpdateStatus(uint(id), req.Status); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "租户状态已更新", nil)
}
