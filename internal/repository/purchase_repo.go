package repository

import (
	"context"

	"gorm.io/gorm"

	"tutorlink/backend/internal/model"
)

// PurchaseRepository 购课台账数据访问接口
// 台账由外部支付模块拥有；预约模块仅读取剩余课时并增减 quantity_used
type PurchaseRepository interface {
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Purchase, error)
	// AdjustUsed 按 delta 增减已用课时；负向调整以 0 为下限，不会退回超过实际消耗的课时
	AdjustUsed(ctx context.Context, purchaseID string, delta int) error
}

type purchaseRepo struct {
	db *gorm.DB
}

// NewPurchaseRepo 创建 PurchaseRepository 实例
func NewPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db: db}
}

func (r *purchaseRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Order("created_at DESC").
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepo) AdjustUsed(ctx context.Context, purchaseID string, delta int) error {
	return r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("purchase_id = ?", purchaseID).
		Update("quantity_used", gorm.Expr("GREATEST(quantity_used + ?, 0)", delta)).Error
}
