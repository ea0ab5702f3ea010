package dto

// ── 每周课表模块 DTO ──

// WeeklyScheduleMap UI 侧每周课表格式：ISO 星期键 "1"(周一).."7"(周日) → 标准时段标签列表
// 标签为整点 HH:MM（如 "09:00"），每个标签代表一节一小时的课
type WeeklyScheduleMap map[string][]string

// ReplaceWeeklyScheduleRequest 全量替换每周课表请求
type ReplaceWeeklyScheduleRequest struct {
	Schedule WeeklyScheduleMap `json:"schedule" binding:"required"`
}

// ReplaceWeeklyScheduleResponse 替换结果
type ReplaceWeeklyScheduleResponse struct {
	Created int `json:"created"`
	Deleted int `json:"deleted"`
}

// SlotResponse 可预约时段行（存储格式视图，weekday 0=周日..6=周六）
type SlotResponse struct {
	ID        string `json:"id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

// WeeklyScheduleResponse 每周课表响应：UI 映射 + 底层时段行
type WeeklyScheduleResponse struct {
	Schedule WeeklyScheduleMap `json:"schedule"`
	Slots    []SlotResponse    `json:"slots"`
}

// ── 冲突扫描 ──

// ConflictScanRequest 破坏性课表修改前的冲突扫描请求
type ConflictScanRequest struct {
	From    string   `json:"from"     binding:"required"` // YYYY-MM-DD（UTC）
	To      string   `json:"to"       binding:"required"` // YYYY-MM-DD（UTC，含当日）
	SlotIDs []string `json:"slot_ids" binding:"omitempty,dive,uuid"`
}

// SlotConflict 一条已预约课程落入待修改时段窗口的记录
type SlotConflict struct {
	ReservationID string `json:"reservation_id"`
	ReserveTime   string `json:"reserve_time"` // RFC3339 UTC
	StudentID     string `json:"student_id"`
	CourseID      string `json:"course_id"`
	TeacherStatus string `json:"teacher_status"`
	SlotID        string `json:"slot_id"`
	Weekday       int    `json:"weekday"`
	SlotStart     string `json:"slot_start"`
	SlotEnd       string `json:"slot_end"`
}

// ConflictScanResponse 冲突扫描结果
type ConflictScanResponse struct {
	Conflicts []SlotConflict `json:"conflicts"`
}
