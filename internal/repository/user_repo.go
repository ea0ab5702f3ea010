package repository

import (
	"context"

	"gorm.io/gorm"

	"tutorlink/backend/internal/model"
)

// UserRepository 用户数据访问接口
// 资料 CRUD 归属外部模块，这里仅保留身份解析所需的查询
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetTeacherByID 解析教师身份：用户存在且 role=teacher 且处于激活状态
	GetTeacherByID(ctx context.Context, id string) (*model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetTeacherByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND role = ? AND is_active = ?", id, model.RoleTeacher, true).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
