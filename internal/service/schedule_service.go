package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutorlink/backend/config"
	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/model"
	"tutorlink/backend/internal/repository"
	apperrors "tutorlink/backend/pkg/errors"
	"tutorlink/backend/pkg/redis"
)

// ── 课表模块业务错误 ──

var (
	ErrTeacherNotFound = errors.New("教师不存在")
	ErrBadDateFormat   = errors.New("日期格式无效")
)

// ScheduleService 教师每周课表业务接口
//
// 设计说明：
//   - 课表更新采用全量替换策略，在单个事务中执行 "删除旧时段 → 批量插入新时段"，
//     不做逐字段修补，保证无部分写入。
//   - 读路径带 Redis 缓存，替换成功后主动失效。
//   - ScanConflicts 供破坏性课表修改前调用：找出已预约课程落入待改动时段窗口的全部记录。
type ScheduleService interface {
	// GetWeeklySchedule 获取教师每周课表（UI 映射 + 底层时段行）
	GetWeeklySchedule(ctx context.Context, teacherID string) (*dto.WeeklyScheduleResponse, error)
	// ReplaceWeeklySchedule 全量替换教师每周课表
	ReplaceWeeklySchedule(ctx context.Context, teacherID string, req *dto.ReplaceWeeklyScheduleRequest) (*dto.ReplaceWeeklyScheduleResponse, error)
	// IsTimeWithinAvailability 指定星期与 HH:MM 时刻是否落在教师任一激活时段的 [start, end) 内
	IsTimeWithinAvailability(ctx context.Context, teacherID string, weekday int, hhmm string) (bool, error)
	// ScanConflicts 冲突扫描：日期范围内已预约课程与（可选子集）时段窗口的交集
	ScanConflicts(ctx context.Context, teacherID string, req *dto.ConflictScanRequest) (*dto.ConflictScanResponse, error)
}

type scheduleService struct {
	cfg    *config.ReservationConfig
	repo   *repository.Repository
	rdb    *redis.Client // 可为 nil：降级为直查数据库
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(cfg *config.ReservationConfig, repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) ScheduleService {
	return &scheduleService{cfg: cfg, repo: repo, rdb: rdb, logger: logger}
}

// ────────────────────── GetWeeklySchedule ──────────────────────

func (s *scheduleService) GetWeeklySchedule(ctx context.Context, teacherID string) (*dto.WeeklyScheduleResponse, error) {
	if _, err := s.repo.User.GetTeacherByID(ctx, teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}

	// 缓存命中则直接返回
	if s.rdb != nil {
		if cached, err := s.rdb.GetWeeklySchedule(ctx, teacherID); err != nil {
			s.logger.Warn("读取课表缓存失败", zap.Error(err))
		} else if cached != "" {
			var resp dto.WeeklyScheduleResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	slots, err := s.repo.AvailableSlot.ListByTeacher(ctx, teacherID)
	if err != nil {
		s.logger.Error("查询可预约时段失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	resp := &dto.WeeklyScheduleResponse{
		Schedule: EncodeWeeklySchedule(slots),
		Slots:    toSlotResponses(slots),
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := s.rdb.SetWeeklySchedule(ctx, teacherID, string(payload), s.cfg.ScheduleCacheTTL); err != nil {
				s.logger.Warn("写入课表缓存失败", zap.Error(err))
			}
		}
	}

	return resp, nil
}

// ────────────────────── ReplaceWeeklySchedule ──────────────────────

func (s *scheduleService) ReplaceWeeklySchedule(ctx context.Context, teacherID string, req *dto.ReplaceWeeklyScheduleRequest) (*dto.ReplaceWeeklyScheduleResponse, error) {
	if _, err := s.repo.User.GetTeacherByID(ctx, teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}

	// 校验并展开为存储行；任一时段不合法则整体拒绝，无部分写入
	slots, err := DecodeWeeklySchedule(teacherID, req.Schedule)
	if err != nil {
		return nil, err
	}
	if err := ValidateSlotRows(slots); err != nil {
		return nil, err
	}

	created, deleted, err := s.repo.AvailableSlot.ReplaceByTeacher(ctx, teacherID, slots)
	if err != nil {
		s.logger.Error("替换课表失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	if s.rdb != nil {
		if err := s.rdb.InvalidateWeeklySchedule(ctx, teacherID); err != nil {
			s.logger.Warn("课表缓存失效失败", zap.String("teacher_id", teacherID), zap.Error(err))
		}
	}

	s.logger.Info("课表已替换",
		zap.String("teacher_id", teacherID),
		zap.Int("created", created),
		zap.Int("deleted", deleted),
	)

	return &dto.ReplaceWeeklyScheduleResponse{Created: created, Deleted: deleted}, nil
}

// ────────────────────── IsTimeWithinAvailability ──────────────────────

func (s *scheduleService) IsTimeWithinAvailability(ctx context.Context, teacherID string, weekday int, hhmm string) (bool, error) {
	slots, err := s.repo.AvailableSlot.ListByTeacherAndWeekday(ctx, teacherID, weekday)
	if err != nil {
		return false, err
	}
	for i := range slots {
		if slots[i].Contains(hhmm) {
			return true, nil
		}
	}
	return false, nil
}

// ────────────────────── ScanConflicts ──────────────────────

func (s *scheduleService) ScanConflicts(ctx context.Context, teacherID string, req *dto.ConflictScanRequest) (*dto.ConflictScanResponse, error) {
	from, err := time.ParseInLocation("2006-01-02", req.From, time.UTC)
	if err != nil {
		return nil, ErrBadDateFormat
	}
	toDate, err := time.ParseInLocation("2006-01-02", req.To, time.UTC)
	if err != nil {
		return nil, ErrBadDateFormat
	}
	if toDate.Before(from) {
		verr := apperrors.NewValidationError()
		verr.Add("to", "结束日期不能早于开始日期")
		return nil, verr
	}
	to := toDate.AddDate(0, 0, 1).Add(-time.Nanosecond) // 含当日

	slots, err := s.repo.AvailableSlot.ListByTeacher(ctx, teacherID)
	if err != nil {
		s.logger.Error("查询可预约时段失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	// 指定了时段子集时只扫描这些窗口
	if len(req.SlotIDs) > 0 {
		idSet := make(map[string]bool, len(req.SlotIDs))
		for _, id := range req.SlotIDs {
			idSet[id] = true
		}
		filtered := slots[:0]
		for _, slot := range slots {
			if idSet[slot.AvailableSlotID] {
				filtered = append(filtered, slot)
			}
		}
		slots = filtered
	}

	reservations, err := s.repo.Reservation.ListActiveByTeacherAndRange(ctx, teacherID, from, to)
	if err != nil {
		s.logger.Error("查询预约失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	conflicts := make([]dto.SlotConflict, 0)
	for i := range reservations {
		r := &reservations[i]
		weekday := int(r.ReserveTime.UTC().Weekday())
		hhmm := r.ReserveTime.UTC().Format("15:04")

		for j := range slots {
			slot := &slots[j]
			if slot.Weekday != weekday || !slot.Contains(hhmm) {
				continue
			}
			conflicts = append(conflicts, dto.SlotConflict{
				ReservationID: r.ReservationID,
				ReserveTime:   r.ReserveTime.UTC().Format(time.RFC3339),
				StudentID:     r.StudentID,
				CourseID:      r.CourseID,
				TeacherStatus: r.TeacherStatus,
				SlotID:        slot.AvailableSlotID,
				Weekday:       slot.Weekday,
				SlotStart:     slot.StartTime,
				SlotEnd:       slot.EndTime,
			})
		}
	}

	return &dto.ConflictScanResponse{Conflicts: conflicts}, nil
}

// ── 内部辅助方法 ──

func toSlotResponses(slots []model.AvailableSlot) []dto.SlotResponse {
	result := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, dto.SlotResponse{
			ID:        slots[i].AvailableSlotID,
			Weekday:   slots[i].Weekday,
			StartTime: slots[i].StartTime,
			EndTime:   slots[i].EndTime,
			IsActive:  slots[i].IsActive,
		})
	}
	return result
}
