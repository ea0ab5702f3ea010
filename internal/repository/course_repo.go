package repository

import (
	"context"

	"gorm.io/gorm"

	"tutorlink/backend/internal/model"
)

// CourseRepository 课程数据访问接口（预约模块只读）
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*model.Course, error)
	// GetActiveByIDAndTeacher 校验课程归属：课程存在、激活且属于指定教师
	GetActiveByIDAndTeacher(ctx context.Context, id, teacherID string) (*model.Course, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).Where("course_id = ?", id).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetActiveByIDAndTeacher(ctx context.Context, id, teacherID string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND teacher_id = ? AND is_active = ?", id, teacherID, true).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}
