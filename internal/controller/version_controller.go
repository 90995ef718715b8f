package controller

import (
	"errors"
	"io"

	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VersionController struct {
	VersionService *service.VersionService
}

func NewVersionController(versionService *service.VersionService) *VersionController {
	return &VersionController{VersionService: versionService}
}

// @Summary 创建新版本
// @Description 版本号自动递增；按种类策略决定是否复制上一版本的题目
// @Tags 版本管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Param version body service.CreateVersionRequest false "版本说明"
// @Success 201 {object} util.Response{data=model.Version}
// @Failure 404 {object} util.Response
// @Router /api/definitions/{id}/versions [post]
func (c *VersionController) CreateVersion(ctx *gin.Context) {
	var req service.CreateVersionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.BadRequest(ctx, err.Error())
		return
	}

	v, err := c.VersionService.CreateVersion(ctx.Request.Context(), ctx.Param("id"), req.Description, util.ActorFromContext(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, v)
}

// @Summary 版本列表
// @Description 按版本号倒序
// @Tags 版本管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Success 200 {object} util.Response{data=[]model.Version}
// @Router /api/definitions/{id}/versions [get]
func (c *VersionController) ListVersions(ctx *gin.Context) {
	versions, err := c.VersionService.GetVersionsForDefinition(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, versions)
}

// @Summary 当前版本
// @Description 最新的已发布版本；没有已发布版本时返回最新版本
// @Tags 版本管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Success 200 {object} util.Response{data=model.Version}
// @Router /api/definitions/{id}/versions/current [get]
func (c *VersionController) CurrentVersion(ctx *gin.Context) {
	v, err := c.VersionService.CurrentVersion(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary 版本详情
// @Tags 版本管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Param versionId path string true "版本ID"
// @Success 200 {object} util.Response{data=model.Version}
// @Router /api/definitions/{id}/versions/{versionId} [get]
func (c *VersionController) GetVersion(ctx *gin.Context) {
	v, err := c.VersionService.GetVersion(ctx.Request.Context(), ctx.Param("id"), ctx.Param("versionId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary 发布版本
// @Tags 版本管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Param versionId path string true "版本ID"
// @Success 200 {object} util.Response{data=model.Version}
// @Failure 409 {object} util.Response
// @Router /api/definitions/{id}/versions/{versionId}/publish [post]
func (c *VersionController) PublishVersion(ctx *gin.Context) {
	v, err := c.VersionService.PublishVersion(ctx.Request.Context(), ctx.Param("id"), ctx.Param("versionId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary 归档版本
// @Tags 版本管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Param versionId path string true "版本ID"
// @Success 200 {object} util.Response{data=model.Version}
// @Failure 409 {object} util.Response
// @Router /api/definitions/{id}/versions/{versionId}/archive [post]
func (c *VersionController) ArchiveVersion(ctx *gin.Context) {
	v, err := c.VersionService.ArchiveVersion(ctx.Request.Context(), ctx.Param("id"), ctx.Param("versionId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary 向草稿版本添加题目
// @Tags 版本管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Param versionId path string true "版本ID"
// @Param question body service.QuestionRequest true "题目内容"
// @Success 201 {object} util.Response{data=model.QuestionVersion}
// @Router /api/definitions/{id}/versions/{versionId}/questions [post]
func (c *VersionController) AddQuestion(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	qv, err := c.VersionService.AddQuestion(ctx.Request.Context(), ctx.Param("id"), ctx.Param("versionId"), req, util.ActorFromContext(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, qv)
}

// @Summary 从草稿版本移除题目
// @Tags 版本管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "定义ID"
// @Param versionId path string true "版本ID"
// @Param questionVersionId path string true "题目版本ID"
// @Success 200 {object} util.Response{data=model.Version}
// @Router /api/definitions/{id}/versions/{versionId}/questions/{questionVersionId} [delete]
func (c *VersionController) RemoveQuestion(ctx *gin.Context) {
	v, err := c.VersionService.RemoveQuestion(ctx.Request.Context(), ctx.Param("id"), ctx.Param("versionId"), ctx.Param("questionVersionId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}
