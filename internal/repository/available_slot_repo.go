package repository

import (
	"context"

	"gorm.io/gorm"

	"tutorlink/backend/internal/model"
)

// AvailableSlotRepository 教师可预约时段数据访问接口
type AvailableSlotRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]model.AvailableSlot, error)
	ListByTeacherAndWeekday(ctx context.Context, teacherID string, weekday int) ([]model.AvailableSlot, error)
	// ReplaceByTeacher 在事务中全量替换教师课表：先删除旧时段，再批量插入新时段
	// 返回 (新建条数, 删除条数)
	ReplaceByTeacher(ctx context.Context, teacherID string, slots []model.AvailableSlot) (created int, deleted int, err error)
}

type availableSlotRepo struct {
	db *gorm.DB
}

// NewAvailableSlotRepo 创建 AvailableSlotRepository 实例
func NewAvailableSlotRepo(db *gorm.DB) AvailableSlotRepository {
	return &availableSlotRepo{db: db}
}

func (r *availableSlotRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.AvailableSlot, error) {
	var slots []model.AvailableSlot
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND is_active = ?", teacherID, true).
		Order("weekday ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *availableSlotRepo) ListByTeacherAndWeekday(ctx context.Context, teacherID string, weekday int) ([]model.AvailableSlot, error) {
	var slots []model.AvailableSlot
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND weekday = ? AND is_active = ?", teacherID, weekday, true).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *availableSlotRepo) ReplaceByTeacher(ctx context.Context, teacherID string, slots []model.AvailableSlot) (int, int, error) {
	var created, deleted int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 硬删除旧时段：替换场景无需保留审计记录
		res := tx.Unscoped().Where("teacher_id = ?", teacherID).Delete(&model.AvailableSlot{})
		if res.Error != nil {
			return res.Error
		}
		deleted = int(res.RowsAffected)

		if len(slots) > 0 {
			if err := tx.Create(&slots).Error; err != nil {
				return err
			}
			created = len(slots)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, deleted, nil
}
