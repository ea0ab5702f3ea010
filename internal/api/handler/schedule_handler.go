package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/service"
	"tutorlink/backend/pkg/response"
)

// ScheduleHandler 每周课表模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// GetMySchedule 获取当前教师的每周课表
// GET /api/v1/schedule/me
func (h *ScheduleHandler) GetMySchedule(c *gin.Context) {
	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.GetWeeklySchedule(c.Request.Context(), teacherID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// GetTeacherSchedule 查看指定教师的每周课表（学生选课用）
// GET /api/v1/teachers/:id/schedule
func (h *ScheduleHandler) GetTeacherSchedule(c *gin.Context) {
	teacherID := c.Param("id")
	if teacherID == "" {
		response.BadRequest(c, 10001, "教师ID不能为空")
		return
	}

	schedule, err := h.scheduleSvc.GetWeeklySchedule(c.Request.Context(), teacherID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// ReplaceMySchedule 全量替换当前教师的每周课表
// PUT /api/v1/schedule/me
func (h *ScheduleHandler) ReplaceMySchedule(c *gin.Context) {
	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ReplaceWeeklyScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.ReplaceWeeklySchedule(c.Request.Context(), teacherID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// ScanConflicts 破坏性课表修改前的冲突扫描
// POST /api/v1/schedule/me/conflicts
func (h *ScheduleHandler) ScanConflicts(c *gin.Context) {
	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ConflictScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.ScanConflicts(c.Request.Context(), teacherID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// handleScheduleError 统一处理课表模块业务错误
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	if writeValidationError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 12001, "教师不存在")
	case errors.Is(err, service.ErrBadDateFormat):
		response.BadRequest(c, 12002, "日期格式无效")
	default:
		response.InternalError(c)
	}
}
