package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/service"
	"tutorlink/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 数据导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportCalendarXLSX 导出日历视图为 Excel 文件
// GET /api/v1/export/calendar.xlsx?view=month&date=2025-03-01
func (h *ExportHandler) ExportCalendarXLSX(c *gin.Context) {
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

	buf, filename, err := h.exportSvc.ExportCalendarXLSX(c.Request.Context(), actorID, role, &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, xlsxContentType, buf.Bytes())
}

// ExportReservationsICS 导出未来预约为 iCalendar 订阅文件
// GET /api/v1/export/reservations.ics
func (h *ExportHandler) ExportReservationsICS(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ExportReservationsICS(c.Request.Context(), actorID, role)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, "text/calendar; charset=utf-8", data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if writeValidationError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrBadDateFormat):
		response.BadRequest(c, 15001, "日期格式无效")
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 15002, "所选范围内无预约数据")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
