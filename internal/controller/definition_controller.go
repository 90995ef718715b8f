package controller

import (
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DefinitionController struct {
	DefinitionService *service.DefinitionService
}

func NewDefinitionController(definitionService *service.DefinitionService) *DefinitionController {
	return &DefinitionController{DefinitionService: definitionService}
}

// @Summary 创建测评/问卷
// @Tags 内容定义
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param definition body service.DefinitionRequest true "定义信息"
// @Success 201 {object} util.Response{data=model.Definition}
// @Failure 400 {object} util.Response
// @Router /api/definitions [post]
func (c *DefinitionController) CreateDefinition(ctx *gin.Context) {
	var req service.DefinitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	def, err := c.DefinitionService.CreateDefinition(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, def)
}

// @Summary 定义列表
// @Tags 内容定义
// @Produce json
// @Security ApiKeyAuth
// @Param kind query string false "assessment 或 survey"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/definitions [get]
func (c *DefinitionController) ListDefinitions(ctx *gin.Context) {
	page, limit := util.Pagination(ctx)
	defs, total, err := c.DefinitionService.ListDefinitions(ctx.Request.Context(), model.ContentKind(ctx.Query("kind")), page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: defs, Total: total, Page: page, Limit: limit})
}

// @Summary 定义详情
// @Tags 内容定义
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Success 200 {object} util.Response{data=model.Definition}
// @Failure 404 {object} util.Response
// @Router /api/definitions/{id} [get]
func (c *DefinitionController) GetDefinition(ctx *gin.Context) {
	def, err := c.DefinitionService.GetDefinition(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, def)
}

// @Summary 更新定义
// @Description 种类（kind）创建后不可修改
// @Tags 内容定义
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Param definition body service.DefinitionRequest true "定义信息"
// @Success 200 {object} util.Response{data=model.Definition}
// @Router /api/definitions/{id} [put]
func (c *DefinitionController) UpdateDefinition(ctx *gin.Context) {
	var req service.DefinitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	def, err := c.DefinitionService.UpdateDefinition(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, def)
}
