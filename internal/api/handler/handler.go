package handler

import "tutorlink/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	Schedule    *ScheduleHandler
	Reservation *ReservationHandler
	Calendar    *CalendarHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Schedule:    NewScheduleHandler(svc.Schedule),
		Reservation: NewReservationHandler(svc.Reservation),
		Calendar:    NewCalendarHandler(svc.Calendar),
		Export:      NewExportHandler(svc.Export),
	}
}
