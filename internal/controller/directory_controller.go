package controller

import (
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// DirectoryController 供外部系统同步组织目录数据
type DirectoryController struct {
	DirectoryService *service.DirectoryService
}

func NewDirectoryController(directoryService *service.DirectoryService) *DirectoryController {
	return &DirectoryController{DirectoryService: directoryService}
}

// @Summary 同步群组
// @Tags 组织目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "群组ID"
// @Param group body service.GroupRequest true "群组信息"
// @Success 200 {object} util.Response{data=model.DirectoryGroup}
// @Router /api/directory/groups/{id} [put]
func (c *DirectoryController) UpsertGroup(ctx *gin.Context) {
	var req service.GroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	g, err := c.DirectoryService.UpsertGroup(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, g)
}

// @Summary 同步企业
// @Tags 组织目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "企业ID"
// @Param company body service.CompanyRequest true "企业信息"
// @Success 200 {object} util.Response{data=model.DirectoryCompany}
// @Router /api/directory/companies/{id} [put]
func (c *DirectoryController) UpsertCompany(ctx *gin.Context) {
	var req service.CompanyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	co, err := c.DirectoryService.UpsertCompany(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, co)
}

// @Summary 同步用户
// @Tags 组织目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "用户ID"
// @Param user body service.UserRequest true "用户信息"
// @Success 200 {object} util.Response{data=model.DirectoryUser}
// @Router /api/directory/users/{id} [put]
func (c *DirectoryController) UpsertUser(ctx *gin.Context) {
	var req service.UserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	u, err := c.DirectoryService.UpsertUser(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, u)
}
