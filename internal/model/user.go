package model

// 用户角色
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleAdmin   = "admin" // 内部运营/外部定时任务使用
)

// User 用户表 — 对应 users
// 教师与学生共用一张表，以 role 区分；资料类字段（简介、头像等）归属外部资料模块
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(50);not null"                      json:"name"`
	Email        string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(100);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null"                      json:"role"` // teacher | student | admin
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
