package controller

import (
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DeliveryController struct {
	DeliveryService *service.DeliveryService
}

func NewDeliveryController(deliveryService *service.DeliveryService) *DeliveryController {
	return &DeliveryController{DeliveryService: deliveryService}
}

// DeliveryPayload 创建配信请求；日期支持 RFC3339 或 2006-01-02
type DeliveryPayload struct {
	DefinitionID      string         `json:"definitionId"`
	VersionID         string         `json:"versionId"`
	DeliveryName      string         `json:"deliveryName"`
	TargetDescription string         `json:"targetDescription"`
	Targets           []model.Target `json:"targets"`
	StartDate         string         `json:"startDate"`
	EndDate           string         `json:"endDate"`
}

// DeliveryUpdatePayload 仅目标与结束日期可修改
type DeliveryUpdatePayload struct {
	TargetDescription *string         `json:"targetDescription"`
	Targets           *[]model.Target `json:"targets"`
	EndDate           *string         `json:"endDate"`
	Revision          *int            `json:"revision"`
}

func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := util.ParseDateTime(value)
	if err != nil {
		return nil, util.NewValidationError(field, "must be RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

func (c *DeliveryController) now(ctx *gin.Context) (time.Time, bool) {
	now, err := util.RequestTime(ctx, c.DeliveryService.Clock)
	if err != nil {
		util.BadRequest(ctx, "at must be an RFC3339 timestamp")
		return time.Time{}, false
	}
	return now, true
}

// @Summary 创建配信
// @Description 参与人数按目标在创建时汇总，之后不再重新计算
// @Tags 配信管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param delivery body DeliveryPayload true "配信信息"
// @Success 201 {object} util.Response{data=service.DeliveryView}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/deliveries [post]
func (c *DeliveryController) CreateDelivery(ctx *gin.Context) {
	var p DeliveryPayload
	if err := ctx.ShouldBindJSON(&p); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	start, err := parseDate("startDate", p.StartDate)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	end, err := parseDate("endDate", p.EndDate)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	v, err := c.DeliveryService.CreateDelivery(ctx.Request.Context(), service.DeliveryRequest{
		DefinitionID:      p.DefinitionID,
		VersionID:         p.VersionID,
		DeliveryName:      p.DeliveryName,
		TargetDescription: p.TargetDescription,
		Targets:           p.Targets,
		StartDate:         start,
		EndDate:           end,
	}, util.ActorFromContext(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, v)
}

// @Summary 配信列表
// @Description 状态与完成率在响应时按 at（默认当前时间）计算
// @Tags 配信管理
// @Produce json
// @Security ApiKeyAuth
// @Param definitionId query string false "定义ID"
// @Param kind query string false "assessment 或 survey"
// @Param status query string false "按计算后的状态过滤"
// @Param at query string false "计算时刻 (RFC3339)"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/deliveries [get]
func (c *DeliveryController) ListDeliveries(ctx *gin.Context) {
	now, ok := c.now(ctx)
	if !ok {
		return
	}
	page, limit := util.Pagination(ctx)

	views, total, err := c.DeliveryService.ListDeliveries(ctx.Request.Context(), service.DeliveryQuery{
		DefinitionID: ctx.Query("definitionId"),
		Kind:         model.ContentKind(ctx.Query("kind")),
		Status:       model.DeliveryStatus(ctx.Query("status")),
		Page:         page,
		Limit:        limit,
	}, now)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: views, Total: total, Page: page, Limit: limit})
}

// @Summary 配信详情
// @Tags 配信管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "配信ID"
// @Param at query string false "计算时刻 (RFC3339)"
// @Success 200 {object} util.Response{data=service.DeliveryView}
// @Router /api/deliveries/{id} [get]
func (c *DeliveryController) GetDelivery(ctx *gin.Context) {
	now, ok := c.now(ctx)
	if !ok {
		return
	}
	v, err := c.DeliveryService.GetDelivery(ctx.Request.Context(), ctx.Param("id"), now)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary 修改配信
// @Description 已完成、已过期或已取消的配信不可修改；携带 revision 时进行乐观锁校验
// @Tags 配信管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "配信ID"
// @Param delivery body DeliveryUpdatePayload true "可修改字段"
// @Success 200 {object} util.Response{data=service.DeliveryView}
// @Failure 409 {object} util.Response
// @Router /api/deliveries/{id} [patch]
func (c *DeliveryController) UpdateDelivery(ctx *gin.Context) {
	var p DeliveryUpdatePayload
	if err := ctx.ShouldBindJSON(&p); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	req := service.DeliveryUpdateRequest{
		TargetDescription: p.TargetDescription,
		Targets:           p.Targets,
		Revision:          p.Revision,
	}
	if p.EndDate != nil {
		end, err := util.ParseDateTime(*p.EndDate)
		if err != nil {
			util.RespondError(ctx, util.NewValidationError("endDate", "must be RFC3339 or YYYY-MM-DD"))
			return
		}
		req.EndDate = &end
	}

	v, err := c.DeliveryService.UpdateDeliveryWindow(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary 删除配信
// @Tags 配信管理
// @Security ApiKeyAuth
// @Param id path string true "配信ID"
// @Success 204
// @Failure 404 {object} util.Response
// @Router /api/deliveries/{id} [delete]
func (c *DeliveryController) DeleteDelivery(ctx *gin.Context) {
	if err := c.DeliveryService.DeleteDelivery(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.NoContent(ctx)
}

// @Summary 取消配信
// @Tags 配信管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "配信ID"
// @Success 200 {object} util.Response{data=service.DeliveryView}
// @Failure 409 {object} util.Response
// @Router /api/deliveries/{id}/cancel [post]
func (c *DeliveryController) CancelDelivery(ctx *gin.Context) {
	v, err := c.DeliveryService.CancelDelivery(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary 记录一名参与者完成
// @Tags 配信管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "配信ID"
// @Success 200 {object} util.Response{data=service.DeliveryView}
// @Failure 409 {object} util.Response
// @Router /api/deliveries/{id}/completions [post]
func (c *DeliveryController) RecordCompletion(ctx *gin.Context) {
	v, err := c.DeliveryService.RecordCompletion(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary 导出配信报表
// @Description 将配信当前视图以 JSON 写入存储并返回地址
// @Tags 配信管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "配信ID"
// @Param at query string false "计算时刻 (RFC3339)"
// @Success 200 {object} util.Response
// @Router /api/deliveries/{id}/report [post]
func (c *DeliveryController) ExportReport(ctx *gin.Context) {
	now, ok := c.now(ctx)
	if !ok {
		return
	}
	url, err := c.DeliveryService.ExportReport(ctx.Request.Context(), ctx.Param("id"), now)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}
