package model

// AvailableSlot 教师每周可预约时段表 — 对应 available_slots
// weekday 统一采用 0=周日..6=周六；时间均为 UTC 的 HH:MM
// 同一教师的时段允许重叠（重叠仅是冗余，不影响判定）
type AvailableSlot struct {
	AvailableSlotID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"available_slot_id"`
	TeacherID       string `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	Weekday         int    `gorm:"type:smallint;not null"                         json:"weekday"` // 0-6
	StartTime       string `gorm:"type:time;not null"                             json:"start_time"`
	EndTime         string `gorm:"type:time;not null"                             json:"end_time"`
	IsActive        bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (AvailableSlot) TableName() string { return "available_slots" }

// Contains 判断 HH:MM 时刻是否落在 [StartTime, EndTime) 区间内
// HH:MM 为零填充格式，字典序与时间序一致，可直接比较
func (s *AvailableSlot) Contains(hhmm string) bool {
	return s.StartTime <= hhmm && hhmm < s.EndTime
}
