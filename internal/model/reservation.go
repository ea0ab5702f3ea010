package model

import "time"

// ── 预约双边状态 ──
// 教师侧与学生侧各自独立演进；部分操作（拒绝、取消）强制两侧同时落入 CANCELLED
const (
	StatusPending   = "PENDING"
	StatusReserved  = "RESERVED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusOverdue   = "OVERDUE" // 仅学生侧可达，由外部定时任务触发
)

// Reservation 预约表 — 对应 reservations
// reserve_time 为绝对 UTC 时刻；同一教师同一时刻最多存在一条未取消预约，
// 由数据库部分唯一索引保证（见迁移文件）
type Reservation struct {
	ReservationID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_id"`
	CourseID         string     `gorm:"type:uuid;not null"                             json:"course_id"`
	TeacherID        string     `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	StudentID        string     `gorm:"type:uuid;not null;index"                       json:"student_id"`
	ReserveTime      time.Time  `gorm:"not null"                                       json:"reserve_time"`
	TeacherStatus    string     `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"teacher_status"`
	StudentStatus    string     `gorm:"type:varchar(20);not null;default:'RESERVED'"   json:"student_status"`
	ResponseDeadline *time.Time `json:"response_deadline,omitempty"` // 教师确认/拒绝后清空
	RejectionReason  string     `gorm:"type:varchar(500)"                              json:"rejection_reason,omitempty"`
	SoftDeleteModel

	// 关联
	Course  *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
	Teacher *User   `gorm:"foreignKey:TeacherID;references:UserID"  json:"teacher,omitempty"`
	Student *User   `gorm:"foreignKey:StudentID;references:UserID"  json:"student,omitempty"`
}

// TableName 指定表名
func (Reservation) TableName() string { return "reservations" }

// IsFullyCompleted 双侧均已完成（派生值，不落库）
func (r *Reservation) IsFullyCompleted() bool {
	return r.TeacherStatus == StatusCompleted && r.StudentStatus == StatusCompleted
}

// OverallStatus 三态综合状态（派生值，不落库）：
// 任一侧取消 → cancelled；双侧完成 → completed；其余 → reserved
func (r *Reservation) OverallStatus() string {
	if r.TeacherStatus == StatusCancelled || r.StudentStatus == StatusCancelled {
		return "cancelled"
	}
	if r.IsFullyCompleted() {
		return "completed"
	}
	return "reserved"
}
