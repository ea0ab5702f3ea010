package service

import (
	"go.uber.org/zap"

	"tutorlink/backend/config"
	"tutorlink/backend/internal/repository"
	"tutorlink/backend/pkg/jwt"
	"tutorlink/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	Schedule    ScheduleService
	Reservation ReservationService
	Calendar    CalendarService
	Export      ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	calendarSvc := NewCalendarService(repo, logger)

	return &Service{
		Auth:        NewAuthService(repo, jwtMgr, rdb, cfg.Auth.AccessTokenTTL, logger),
		Schedule:    NewScheduleService(&cfg.Reservation, repo, rdb, logger),
		Reservation: NewReservationService(&cfg.Reservation, repo, logger),
		Calendar:    calendarSvc,
		Export:      NewExportService(repo, calendarSvc, logger),
	}
}
