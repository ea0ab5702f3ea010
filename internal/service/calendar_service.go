package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/repository"
)

const defaultLessonMinutes = 60

// CalendarService 日历视图业务接口
//
// 视图范围：
//   - week:  锚点日期所在的周一 ~ 周日
//   - month: 锚点日期所在月的第一天 ~ 最后一天
//
// 角色过滤：teacher 按 teacher_id 查询，其余按 student_id 查询。
// 派生三态（cancelled / completed / reserved）在此计算，不落库。
type CalendarService interface {
	GetCalendarView(ctx context.Context, actorID, role string, req *dto.CalendarRequest) (*dto.CalendarResponse, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger}
}

func (s *calendarService) GetCalendarView(ctx context.Context, actorID, role string, req *dto.CalendarRequest) (*dto.CalendarResponse, error) {
	anchor, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return nil, ErrBadDateFormat
	}

	var from, last time.Time
	switch req.View {
	case "month":
		from = time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		last = from.AddDate(0, 1, -1)
	default: // week
		offset := (int(anchor.Weekday()) + 6) % 7 // 周一为一周起点
		from = anchor.AddDate(0, 0, -offset)
		last = from.AddDate(0, 0, 6)
	}
	to := last.AddDate(0, 0, 1).Add(-time.Nanosecond)

	reservations, err := s.repo.Reservation.ListByActorAndRange(ctx, actorID, role, from, to)
	if err != nil {
		s.logger.Error("查询日历预约失败", zap.String("actor_id", actorID), zap.Error(err))
		return nil, err
	}

	// 按日分桶
	byDate := make(map[string][]dto.CalendarItem)
	for i := range reservations {
		r := &reservations[i]
		rt := r.ReserveTime.UTC()
		dateKey := rt.Format("2006-01-02")

		duration := defaultLessonMinutes
		title := ""
		if r.Course != nil {
			title = r.Course.Title
			if r.Course.DurationMinutes > 0 {
				duration = r.Course.DurationMinutes
			}
		}

		byDate[dateKey] = append(byDate[dateKey], dto.CalendarItem{
			ID:              r.ReservationID,
			Time:            rt.Format("15:04"),
			DurationMinutes: duration,
			Status:          r.OverallStatus(),
			CourseTitle:     title,
		})
	}

	days := make([]dto.CalendarDay, 0, int(last.Sub(from).Hours()/24)+1)
	for d := from; !d.After(last); d = d.AddDate(0, 0, 1) {
		dateKey := d.Format("2006-01-02")
		items := byDate[dateKey]
		if items == nil {
			items = []dto.CalendarItem{}
		}
		days = append(days, dto.CalendarDay{
			Date:         dateKey,
			Weekday:      d.Weekday().String(),
			Reservations: items,
		})
	}

	resp := &dto.CalendarResponse{
		View: req.View,
		From: from.Format("2006-01-02"),
		To:   last.Format("2006-01-02"),
		Days: days,
	}

	// 月视图附带周期汇总：completed = 双侧完成；upcoming = 仍处预约中
	if req.View == "month" {
		summary := &dto.CalendarSummary{}
		for i := range reservations {
			r := &reservations[i]
			switch {
			case r.IsFullyCompleted():
				summary.CompletedReservations++
			case r.OverallStatus() == "reserved":
				summary.UpcomingReservations++
			}
		}
		resp.Summary = summary
	}

	return resp, nil
}
