package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/model"
	"tutorlink/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("所选范围内无预约数据")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// icsExportHorizon 日历订阅导出覆盖的未来时长
const icsExportHorizon = 90 * 24 * time.Hour

// ExportService 导出业务接口
//
// 设计说明：
//   - 日历视图导出为 Excel (.xlsx)，行粒度为单条预约
//   - 预约订阅导出为 iCalendar (.ics)，供外部日历客户端订阅
//   - 均以内容 + 建议文件名返回，由 Handler 层设置 HTTP 响应头
type ExportService interface {
	// ExportCalendarXLSX 将指定视图范围的日历导出为 Excel
	ExportCalendarXLSX(ctx context.Context, actorID, role string, req *dto.CalendarRequest) (*bytes.Buffer, string, error)
	// ExportReservationsICS 将未来 90 天的未取消预约导出为 iCalendar
	ExportReservationsICS(ctx context.Context, actorID, role string) ([]byte, string, error)
}

type exportService struct {
	repo        *repository.Repository
	calendarSvc CalendarService
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, calendarSvc CalendarService, logger *zap.Logger) ExportService {
	return &exportService{
		repo:        repo,
		calendarSvc: calendarSvc,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ════════════════════════════════════════════════════════════
// ExportCalendarXLSX — 日历视图导出为 Excel
// ════════════════════════════════════════════════════════════
//
// 输出格式：单 Sheet，列为 日期 / 星期 / 时间 / 课程 / 时长(分钟) / 状态

func (s *exportService) ExportCalendarXLSX(ctx context.Context, actorID, role string, req *dto.CalendarRequest) (*bytes.Buffer, string, error) {
	view, err := s.calendarSvc.GetCalendarView(ctx, actorID, role, req)
	if err != nil {
		return nil, "", err
	}

	total := 0
	for _, day := range view.Days {
		total += len(day.Reservations)
	}
	if total == 0 {
		return nil, "", ErrExportNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "日历"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 8)
	f.SetColWidth(sheetName, "D", "D", 28)
	f.SetColWidth(sheetName, "E", "F", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"日期", "星期", "时间", "课程", "时长(分钟)", "状态"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	row := 2
	for _, day := range view.Days {
		for _, item := range day.Reservations {
			values := []interface{}{day.Date, day.Weekday, item.Time, item.CourseTitle, item.DurationMinutes, item.Status}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheetName, cell, v)
			}
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("calendar_%s_%s.xlsx", view.From, view.To)
	return buf, filename, nil
}

// ════════════════════════════════════════════════════════════
// ExportReservationsICS — 预约订阅导出为 iCalendar
// ════════════════════════════════════════════════════════════

func (s *exportService) ExportReservationsICS(ctx context.Context, actorID, role string) ([]byte, string, error) {
	now := s.now()
	reservations, err := s.repo.Reservation.ListByActorAndRange(ctx, actorID, role, now, now.Add(icsExportHorizon))
	if err != nil {
		s.logger.Error("查询预约失败", zap.String("actor_id", actorID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tutorlink//reservation//CN")

	count := 0
	for i := range reservations {
		r := &reservations[i]
		if r.TeacherStatus == model.StatusCancelled || r.StudentStatus == model.StatusCancelled {
			continue
		}

		duration := defaultLessonMinutes
		summary := "辅导课程"
		if r.Course != nil {
			if r.Course.DurationMinutes > 0 {
				duration = r.Course.DurationMinutes
			}
			if r.Course.Title != "" {
				summary = r.Course.Title
			}
		}

		event := cal.AddEvent(r.ReservationID)
		event.SetDtStampTime(now)
		event.SetStartAt(r.ReserveTime.UTC())
		event.SetEndAt(r.ReserveTime.UTC().Add(time.Duration(duration) * time.Minute))
		event.SetSummary(summary)
		count++
	}

	if count == 0 {
		return nil, "", ErrExportNoData
	}

	return []byte(cal.Serialize()), "reservations.ics", nil
}
