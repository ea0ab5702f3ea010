package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Course        CourseRepository
	Purchase      PurchaseRepository
	AvailableSlot AvailableSlotRepository
	Reservation   ReservationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Course:        NewCourseRepo(db),
		Purchase:      NewPurchaseRepo(db),
		AvailableSlot: NewAvailableSlotRepo(db),
		Reservation:   NewReservationRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn
// fn 收到的 Repository 绑定到事务连接；fn 返回错误时整体回滚。
// 预约状态变更与课时增减必须共用一个事务，避免崩溃后计数与预约状态不一致
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		// 测试场景下聚合由 mock 构成，无底层连接，直接执行
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
