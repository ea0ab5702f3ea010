package model

// Course 课程表 — 对应 courses
// 课程详情（定价、介绍、审核）归属外部课程模块，这里仅保留预约所需字段
type Course struct {
	CourseID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	TeacherID       string `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	Title           string `gorm:"type:varchar(100);not null"                     json:"title"`
	DurationMinutes int    `gorm:"type:smallint;not null;default:60"              json:"duration_minutes"`
	IsActive        bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel

	// 关联
	Teacher *User `gorm:"foreignKey:TeacherID;references:UserID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
