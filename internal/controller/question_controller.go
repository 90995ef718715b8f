package controller

import (
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionVersionService
}

func NewQuestionController(questionService *service.QuestionVersionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// @Summary 修改题目内容
// @Description 生成新的题目版本并取代原版本；草稿版本随之更新，已发布版本保持不变
// @Tags 题目版本
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "题目版本ID"
// @Param patch body service.QuestionContentPatch true "修改内容与修改说明"
// @Success 200 {object} util.Response{data=model.QuestionVersion}
// @Failure 409 {object} util.Response "题目版本已被他人修改"
// @Router /api/question-versions/{id} [patch]
func (c *QuestionController) UpdateQuestionContent(ctx *gin.Context) {
	var patch service.QuestionContentPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	qv, err := c.QuestionService.UpdateQuestionContent(ctx.Request.Context(), ctx.Param("id"), patch, util.ActorFromContext(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, qv)
}

// @Summary 题目版本详情
// @Tags 题目版本
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "题目版本ID"
// @Success 200 {object} util.Response{data=model.QuestionVersion}
// @Router /api/question-versions/{id} [get]
func (c *QuestionController) GetQuestionVersion(ctx *gin.Context) {
	qv, err := c.QuestionService.GetQuestionVersion(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, qv)
}

// @Summary 题目修改历史
// @Tags 题目版本
// @Produce json
// @Security ApiKeyAuth
// @Param questionId path string true "题目ID"
// @Success 200 {object} util.Response{data=[]model.QuestionVersion}
// @Router /api/questions/{questionId}/history [get]
func (c *QuestionController) QuestionHistory(ctx *gin.Context) {
	history, err := c.QuestionService.QuestionHistory(ctx.Request.Context(), ctx.Param("questionId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, history)
}
