package handlers

import (
	"bidexpert/internal/services"
	"bidexpert/pkg/jwt"
	"bidexpert/pkg/pagination"
	"bidexpert/pkg/response"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ReconciliationHandler 对账处理器
type ReconciliationHandler struct {
	reconService *services.ReconciliationService
	validator    *services.ConsistencyValidator
}

// NewReconciliationHandler 创建对账处理器实例
func NewReconciliationHandler(reconService *services.ReconciliationService, validator *services.ConsistencyValidator) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconService: reconService,
		validator:    validator,
	}
}

// Scan 触发一次对账扫描
func (h *ReconciliationHandler) Scan(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	var req struct {
		Mode string `json:"mode" binding:"required,oneof=dry_run fix"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		// 解析验证错误，提供更友好的提示
		if validationErr, ok := err.(validator.ValidationErrors); ok {
			errorMsg := "参数验证失败"
			for _, fieldErr := range validationErr {
				if fieldErr.Field() == "Mode" {
					errorMsg = "扫描模式必须是 dry_run 或 fix"
				} else {
					errorMsg = fmt.Sprintf("字段 %s 验证失败", fieldErr.Field())
				}
				break // 只返回第一个错误
			}
			response.BadRequest(c, errorMsg)
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.reconService.Scan(claims.CurrentTenantID, req.Mode)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"result": result,
		"report": services.RenderText(result),
	})
}

// Validate 只读执行一致性校验，返回违规报告
func (h *ReconciliationHandler) Validate(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	report, err := h.validator.ValidateTenant(claims.CurrentTenantID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, report)
}

// ListRuns 分页查询历史扫描记录
func (h *ReconciliationHandler) ListRuns(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)
	pageParams := pagination.ParsePageParams(c)

	runs, total, err := h.reconService.GetRuns(claims.CurrentTenantID, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, runs, pageInfo)
}

// GetRun 查询单次扫描记录
func (h *ReconciliationHandler) GetRun(c *gin.Context) {
	claims := c.MustGet("claims").(*jwt.JWTClaims)

	run, err := h.reconService.GetRunByID(claims.CurrentTenantID, c.Param("runId"))
	if err != nil {
		response.NotFound(c, "扫描记录不存在")
		return
	}

	response.Success(c, run)
}
