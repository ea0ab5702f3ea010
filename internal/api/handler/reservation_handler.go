package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/service"
	"tutorlink/backend/pkg/response"
)

// ReservationHandler 预约模块 HTTP 处理器
type ReservationHandler struct {
	reservationSvc service.ReservationService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(reservationSvc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationSvc: reservationSvc}
}

// Create 学生发起预约
// POST /api/v1/reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reservationSvc.Create(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.Created(c, result)
}

// Get 查看预约详情
// GET /api/v1/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.GetByID(c.Request.Context(), actorID, role, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

// List 分页查询当前用户的预约列表
// GET /api/v1/reservations
func (h *ReservationHandler) List(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	items, total, err := h.reservationSvc.List(c.Request.Context(), actorID, role, &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OKPage(c, items, total, req.Page, req.PageSize)
}

// Confirm 教师确认预约
// POST /api/v1/reservations/:id/confirm
func (h *ReservationHandler) Confirm(c *gin.Context) {
	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.Confirm(c.Request.Context(), teacherID, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject 教师拒绝预约
// POST /api/v1/reservations/:id/reject
func (h *ReservationHandler) Reject(c *gin.Context) {
	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RejectReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reservationSvc.Reject(c.Request.Context(), teacherID, c.Param("id"), req.Reason)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

// Complete 双方各自标记课程完成
// POST /api/v1/reservations/:id/complete
func (h *ReservationHandler) Complete(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.Complete(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

// Cancel 取消预约（开课前 24 小时外）
// POST /api/v1/reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.Cancel(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

// MarkOverdue 标记学生侧超期未评价（内部接口）
// POST /api/v1/internal/reservations/:id/overdue
func (h *ReservationHandler) MarkOverdue(c *gin.Context) {
	result, err := h.reservationSvc.MarkOverdue(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

// ReviewSubmitted 超期后补交评价，恢复为已完成（内部接口）
// POST /api/v1/internal/reservations/:id/review
func (h *ReservationHandler) ReviewSubmitted(c *gin.Context) {
	result, err := h.reservationSvc.ReviewSubmitted(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

// handleReservationError 统一处理预约模块业务错误
func (h *ReservationHandler) handleReservationError(c *gin.Context, err error) {
	if writeValidationError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrReservationNotFound):
		response.NotFound(c, 13001, "预约不存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 13002, "教师不存在")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 13003, "课程不存在或不属于该教师")
	case errors.Is(err, service.ErrNotParticipant):
		response.Forbidden(c, 13004, "无权操作此预约")
	case errors.Is(err, service.ErrTimeConflict):
		response.Conflict(c, 13005, "该时刻已被其他学生预约")
	case errors.Is(err, service.ErrTeacherUnavailable):
		response.BadRequest(c, 13006, "教师在该时段不接受预约")
	case errors.Is(err, service.ErrStatusInvalid):
		response.BadRequest(c, 13007, "当前状态不允许此操作")
	case errors.Is(err, service.ErrCancelWindow):
		response.BadRequest(c, 13008, "距开课不足取消时限，无法取消")
	case errors.Is(err, service.ErrDeadlineExpired):
		response.BadRequest(c, 13009, "响应时限已过，无法确认")
	case errors.Is(err, service.ErrNoLessonsLeft):
		response.BadRequest(c, 13010, "无剩余课时，请先购买课程")
	default:
		response.InternalError(c)
	}
}
