package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"tutorlink/backend/config"
	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/model"
	"tutorlink/backend/internal/repository"
	apperrors "tutorlink/backend/pkg/errors"
)

// ── 预约模块业务错误 ──

var (
	ErrReservationNotFound = errors.New("预约不存在")
	ErrCourseNotFound      = errors.New("课程不存在或不属于该教师")
	ErrNotParticipant      = errors.New("无权操作此预约")
	ErrStatusInvalid       = errors.New("当前状态不允许此操作")
	ErrTimeConflict        = errors.New("该时刻已被其他学生预约")
	ErrTeacherUnavailable  = errors.New("教师在该时段不接受预约")
	ErrCancelWindow        = errors.New("距开课不足取消时限，无法取消")
	ErrDeadlineExpired     = errors.New("响应时限已过，无法确认")
	ErrNoLessonsLeft       = errors.New("无剩余课时，请先购买课程")
)

// ReservationService 预约业务接口
//
// 状态机说明（教师侧 / 学生侧双状态独立演进）：
//   - Create:  teacher=PENDING, student=RESERVED，此时不扣课时
//   - Confirm: teacher PENDING→RESERVED，清空响应时限，课时在此刻扣减
//   - Reject:  两侧→CANCELLED，记录拒绝原因；未扣课时故无退还
//   - Complete: 任一方独立把本侧置为 COMPLETED
//   - Cancel:  两侧→CANCELLED；若已扣课时（教师侧曾达 RESERVED）退还 1 课时
//   - MarkOverdue / ReviewSubmitted: 外部事件输入，仅驱动学生侧状态
//
// 并发正确性：同一教师同一时刻的抢占由数据库部分唯一索引兜底，
// 插入时的唯一冲突统一转换为 ErrTimeConflict。
type ReservationService interface {
	Create(ctx context.Context, studentID string, req *dto.CreateReservationRequest) (*dto.CreateReservationResponse, error)
	GetByID(ctx context.Context, actorID, role, id string) (*dto.ReservationResponse, error)
	List(ctx context.Context, actorID, role string, req *dto.ReservationListRequest) ([]dto.ReservationResponse, int64, error)
	Confirm(ctx context.Context, teacherID, id string) (*dto.ReservationResponse, error)
	Reject(ctx context.Context, teacherID, id string, reason string) (*dto.ReservationResponse, error)
	Complete(ctx context.Context, actorID, id string) (*dto.CompleteReservationResponse, error)
	Cancel(ctx context.Context, actorID, id string) (*dto.ReservationResponse, error)
	// MarkOverdue 外部定时任务输入：课程时间已过而未手动完成，学生侧置为 OVERDUE
	MarkOverdue(ctx context.Context, id string) (*dto.ReservationResponse, error)
	// ReviewSubmitted 评价子系统通知：OVERDUE 预约收到评价后学生侧补记 COMPLETED
	ReviewSubmitted(ctx context.Context, id string) (*dto.ReservationResponse, error)
}

type reservationService struct {
	cfg    *config.ReservationConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time // 测试中可替换
}

// NewReservationService 创建 ReservationService 实例
func NewReservationService(cfg *config.ReservationConfig, repo *repository.Repository, logger *zap.Logger) ReservationService {
	return &reservationService{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ════════════════════════════════════════════════════════════
// Create — 学生发起预约
// ════════════════════════════════════════════════════════════
//
// 流程：
//   1. 组合 date+time 为 UTC 绝对时刻
//   2. 解析教师 / 课程 / 购课台账（剩余课时 > 0）
//   3. 可用性检查与占用检查并发执行（读取互不相交的数据），全部通过才写入
//   4. 插入 PENDING/RESERVED 双状态记录并计算响应时限；唯一索引冲突 → ErrTimeConflict
//
// 课时在确认前不扣减；响应中的课时快照按确认后的口径（used+1）乐观展示。

func (s *reservationService) Create(ctx context.Context, studentID string, req *dto.CreateReservationRequest) (*dto.CreateReservationResponse, error) {
	reserveTime, err := parseReserveTime(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.User.GetTeacherByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}

	course, err := s.repo.Course.GetActiveByIDAndTeacher(ctx, req.CourseID, req.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	purchase, err := s.repo.Purchase.GetByStudentAndCourse(ctx, studentID, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoLessonsLeft
		}
		return nil, err
	}
	if purchase.Remaining() <= 0 {
		return nil, ErrNoLessonsLeft
	}

	// 可用性检查与占用检查读取不相交的数据，可并发；任一失败即中止，无部分写入
	weekday := int(reserveTime.Weekday())
	hhmm := reserveTime.Format("15:04")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slots, err := s.repo.AvailableSlot.ListByTeacherAndWeekday(gctx, req.TeacherID, weekday)
		if err != nil {
			return err
		}
		for i := range slots {
			if slots[i].Contains(hhmm) {
				return nil
			}
		}
		return ErrTeacherUnavailable
	})
	g.Go(func() error {
		taken, err := s.repo.Reservation.ExistsConfirmedAt(gctx, req.TeacherID, reserveTime)
		if err != nil {
			return err
		}
		if taken {
			return ErrTimeConflict
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	deadline := s.computeResponseDeadline(now, reserveTime)

	reservation := &model.Reservation{
		CourseID:         req.CourseID,
		TeacherID:        req.TeacherID,
		StudentID:        studentID,
		ReserveTime:      reserveTime,
		TeacherStatus:    model.StatusPending,
		StudentStatus:    model.StatusReserved,
		ResponseDeadline: &deadline,
	}

	if err := s.repo.Reservation.Create(ctx, reservation); err != nil {
		// 检查与插入之间被并发请求抢占：唯一索引把竞态收敛为冲突错误
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTimeConflict
		}
		s.logger.Error("创建预约失败",
			zap.String("teacher_id", req.TeacherID),
			zap.Time("reserve_time", reserveTime),
			zap.Error(err),
		)
		return nil, err
	}

	reservation.Course = course

	return &dto.CreateReservationResponse{
		Reservation: toReservationResponse(reservation),
		Lessons: dto.LessonSnapshot{
			Total:     purchase.QuantityTotal,
			Used:      purchase.QuantityUsed + 1,
			Remaining: purchase.Remaining() - 1,
		},
	}, nil
}

// computeResponseDeadline 响应时限规则：
// 预约今天或明天的课程 → now + 12h（临近课程给教师更短的响应窗口）；
// 其余 → now + 24h
func (s *reservationService) computeResponseDeadline(now, reserveTime time.Time) time.Time {
	endOfTomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 2)
	if reserveTime.Before(endOfTomorrow) {
		return now.Add(s.cfg.NearTermDeadline)
	}
	return now.Add(s.cfg.DefaultDeadline)
}

// ════════════════════════════════════════════════════════════
// GetByID / List
// ════════════════════════════════════════════════════════════

func (s *reservationService) GetByID(ctx context.Context, actorID, role, id string) (*dto.ReservationResponse, error) {
	reservation, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && !isParticipant(reservation, actorID) {
		return nil, ErrNotParticipant
	}
	resp := toReservationResponse(reservation)
	return &resp, nil
}

func (s *reservationService) List(ctx context.Context, actorID, role string, req *dto.ReservationListRequest) ([]dto.ReservationResponse, int64, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	reservations, total, err := s.repo.Reservation.ListByActor(ctx, actorID, role, page, pageSize)
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.String("actor_id", actorID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		result = append(result, toReservationResponse(&reservations[i]))
	}
	return result, total, nil
}

// ════════════════════════════════════════════════════════════
// Confirm — 教师确认
// ════════════════════════════════════════════════════════════
//
// 课时扣减发生在确认时刻而非创建时刻；状态变更与台账扣减共用一个事务。

func (s *reservationService) Confirm(ctx context.Context, teacherID, id string) (*dto.ReservationResponse, error) {
	reservation, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.TeacherID != teacherID {
		return nil, ErrNotParticipant
	}
	if reservation.TeacherStatus != model.StatusPending {
		return nil, ErrStatusInvalid
	}
	if reservation.ResponseDeadline != nil && s.now().After(*reservation.ResponseDeadline) {
		return nil, ErrDeadlineExpired
	}

	reservation.TeacherStatus = model.StatusReserved
	reservation.ResponseDeadline = nil

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Reservation.Update(ctx, reservation); err != nil {
			return err
		}
		purchase, err := txRepo.Purchase.GetByStudentAndCourse(ctx, reservation.StudentID, reservation.CourseID)
		if err != nil {
			return err
		}
		return txRepo.Purchase.AdjustUsed(ctx, purchase.PurchaseID, +1)
	})
	if err != nil {
		s.logger.Error("确认预约失败", zap.String("reservation_id", id), zap.Error(err))
		return nil, err
	}

	resp := toReservationResponse(reservation)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Reject — 教师拒绝
// ════════════════════════════════════════════════════════════

func (s *reservationService) Reject(ctx context.Context, teacherID, id string, reason string) (*dto.ReservationResponse, error) {
	reservation, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.TeacherID != teacherID {
		return nil, ErrNotParticipant
	}
	if reservation.TeacherStatus != model.StatusPending {
		return nil, ErrStatusInvalid
	}

	// 确认前未扣课时，拒绝无需退还
	reservation.TeacherStatus = model.StatusCancelled
	reservation.StudentStatus = model.StatusCancelled
	reservation.ResponseDeadline = nil
	reservation.RejectionReason = reason

	if err := s.repo.Reservation.Update(ctx, reservation); err != nil {
		s.logger.Error("拒绝预约失败", zap.String("reservation_id", id), zap.Error(err))
		return nil, err
	}

	resp := toReservationResponse(reservation)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Complete — 任一方标记本侧完成
// ════════════════════════════════════════════════════════════

func (s *reservationService) Complete(ctx context.Context, actorID, id string) (*dto.CompleteReservationResponse, error) {
	reservation, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actorID {
	case reservation.TeacherID:
		if reservation.TeacherStatus == model.StatusCancelled {
			return nil, ErrStatusInvalid
		}
		reservation.TeacherStatus = model.StatusCompleted
	case reservation.StudentID:
		if reservation.StudentStatus == model.StatusCancelled {
			return nil, ErrStatusInvalid
		}
		reservation.StudentStatus = model.StatusCompleted
	default:
		return nil, ErrNotParticipant
	}

	if err := s.repo.Reservation.Update(ctx, reservation); err != nil {
		s.logger.Error("标记完成失败", zap.String("reservation_id", id), zap.Error(err))
		return nil, err
	}

	return &dto.CompleteReservationResponse{
		Reservation:    toReservationResponse(reservation),
		FullyCompleted: reservation.IsFullyCompleted(),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Cancel — 任一方取消
// ════════════════════════════════════════════════════════════
//
// 取消窗口：距开课不足 cancel_window（默认 24h）禁止取消。
// 课时若已在确认时扣减（教师侧曾达 RESERVED），在同一事务内退还 1 课时，
// 退还以 0 为下限，不会超过实际消耗。

func (s *reservationService) Cancel(ctx context.Context, actorID, id string) (*dto.ReservationResponse, error) {
	reservation, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParticipant(reservation, actorID) {
		return nil, ErrNotParticipant
	}
	if reservation.TeacherStatus == model.StatusCompleted || reservation.StudentStatus == model.StatusCompleted {
		return nil, ErrStatusInvalid
	}
	if reservation.TeacherStatus == model.StatusCancelled {
		return nil, ErrStatusInvalid
	}
	if reservation.ReserveTime.Sub(s.now()) < s.cfg.CancelWindow {
		return nil, ErrCancelWindow
	}

	refund := reservation.TeacherStatus == model.StatusReserved

	reservation.TeacherStatus = model.StatusCancelled
	reservation.StudentStatus = model.StatusCancelled
	reservation.ResponseDeadline = nil

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Reservation.Update(ctx, reservation); err != nil {
			return err
		}
		if !refund {
			return nil
		}
		purchase, err := txRepo.Purchase.GetByStudentAndCourse(ctx, reservation.StudentID, reservation.CourseID)
		if err != nil {
			return err
		}
		return txRepo.Purchase.AdjustUsed(ctx, purchase.PurchaseID, -1)
	})
	if err != nil {
		s.logger.Error("取消预约失败", zap.String("reservation_id", id), zap.Error(err))
		return nil, err
	}

	resp := toReservationResponse(reservation)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 外部事件输入
// ════════════════════════════════════════════════════════════

func (s *reservationService) MarkOverdue(ctx context.Context, id string) (*dto.ReservationResponse, error) {
	reservation, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.StudentStatus != model.StatusReserved {
		return nil, ErrStatusInvalid
	}

	reservation.StudentStatus = model.StatusOverdue
	if err := s.repo.Reservation.Update(ctx, reservation); err != nil {
		s.logger.Error("标记逾期失败", zap.String("reservation_id", id), zap.Error(err))
		return nil, err
	}

	resp := toReservationResponse(reservation)
	return &resp, nil
}

func (s *reservationService) ReviewSubmitted(ctx context.Context, id string) (*dto.ReservationResponse, error) {
	reservation, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	// OVERDUE 视为 "完成到可评价的程度"，收到评价后学生侧补记完成
	if reservation.StudentStatus != model.StatusOverdue {
		return nil, ErrStatusInvalid
	}

	reservation.StudentStatus = model.StatusCompleted
	if err := s.repo.Reservation.Update(ctx, reservation); err != nil {
		s.logger.Error("评价回填失败", zap.String("reservation_id", id), zap.Error(err))
		return nil, err
	}

	resp := toReservationResponse(reservation)
	return &resp, nil
}

// ── 内部辅助方法 ──

func (s *reservationService) getReservation(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预约失败", zap.String("reservation_id", id), zap.Error(err))
		return nil, err
	}
	return reservation, nil
}

func isParticipant(r *model.Reservation, actorID string) bool {
	return actorID == r.TeacherID || actorID == r.StudentID
}

// parseReserveTime 组合 YYYY-MM-DD + HH:MM 为 UTC 绝对时刻
func parseReserveTime(date, hhmm string) (time.Time, error) {
	verr := apperrors.NewValidationError()
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		verr.Add("date", "日期格式应为 YYYY-MM-DD，实际 %q", date)
	}
	t, err := time.ParseInLocation("15:04", hhmm, time.UTC)
	if err != nil {
		verr.Add("time", "时间格式应为 HH:MM，实际 %q", hhmm)
	}
	if verr.HasErrors() {
		return time.Time{}, verr
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func toReservationResponse(r *model.Reservation) dto.ReservationResponse {
	resp := dto.ReservationResponse{
		ID:               r.ReservationID,
		CourseID:         r.CourseID,
		TeacherID:        r.TeacherID,
		StudentID:        r.StudentID,
		ReserveTime:      r.ReserveTime.UTC(),
		TeacherStatus:    r.TeacherStatus,
		StudentStatus:    r.StudentStatus,
		OverallStatus:    r.OverallStatus(),
		ResponseDeadline: r.ResponseDeadline,
		RejectionReason:  r.RejectionReason,
		CreatedAt:        r.CreatedAt,
	}
	if r.Course != nil {
		resp.CourseTitle = r.Course.Title
	}
	return resp
}
