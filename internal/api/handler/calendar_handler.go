package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/service"
	"tutorlink/backend/pkg/response"
)

// CalendarHandler 日历视图模块 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// GetCalendar 按周或按月查看个人预约日历
// GET /api/v1/calendar?view=week&date=2025-03-10
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.calendarSvc.GetCalendarView(c.Request.Context(), actorID, role, &req)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *CalendarHandler) handleCalendarError(c *gin.Context, err error) {
	if writeValidationError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrBadDateFormat):
		response.BadRequest(c, 14001, "日期格式无效")
	default:
		response.InternalError(c)
	}
}
