package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tutorlink/backend/internal/model"
)

// ReservationRepository 预约数据访问接口
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	Update(ctx context.Context, reservation *model.Reservation) error
	// ExistsConfirmedAt 同一教师同一时刻是否已存在教师侧 RESERVED 的预约
	ExistsConfirmedAt(ctx context.Context, teacherID string, at time.Time) (bool, error)
	// ListActiveByTeacherAndRange 教师在时间范围内的未取消预约（冲突扫描用）
	ListActiveByTeacherAndRange(ctx context.Context, teacherID string, from, to time.Time) ([]model.Reservation, error)
	// ListByActorAndRange 按角色维度（teacher_id 或 student_id）查询范围内全部预约（日历用）
	ListByActorAndRange(ctx context.Context, actorID, role string, from, to time.Time) ([]model.Reservation, error)
	// ListByActor 按角色维度分页查询预约
	ListByActor(ctx context.Context, actorID, role string, page, pageSize int) ([]model.Reservation, int64, error)
}

type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepo 创建 ReservationRepository 实例
func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("reservation_id = ?", id).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) Update(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

func (r *reservationRepo) ExistsConfirmedAt(ctx context.Context, teacherID string, at time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("teacher_id = ? AND reserve_time = ? AND teacher_status = ?",
			teacherID, at, model.StatusReserved).
		Count(&count).Error
	return count > 0, err
}

func (r *reservationRepo) ListActiveByTeacherAndRange(ctx context.Context, teacherID string, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("teacher_id = ? AND reserve_time >= ? AND reserve_time <= ? AND teacher_status <> ?",
			teacherID, from, to, model.StatusCancelled).
		Order("reserve_time ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) ListByActorAndRange(ctx context.Context, actorID, role string, from, to time.Time) ([]model.Reservation, error) {
	column := "student_id"
	if role == model.RoleTeacher {
		column = "teacher_id"
	}

	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where(column+" = ? AND reserve_time >= ? AND reserve_time <= ?", actorID, from, to).
		Order("reserve_time ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) ListByActor(ctx context.Context, actorID, role string, page, pageSize int) ([]model.Reservation, int64, error) {
	column := "student_id"
	if role == model.RoleTeacher {
		column = "teacher_id"
	}

	var total int64
	base := r.db.WithContext(ctx).Model(&model.Reservation{}).Where(column+" = ?", actorID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where(column+" = ?", actorID).
		Order("reserve_time DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reservations).Error
	return reservations, total, err
}
