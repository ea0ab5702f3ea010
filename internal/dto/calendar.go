package dto

// ── 日历模块 DTO ──

// CalendarRequest 日历视图查询参数
type CalendarRequest struct {
	View string `form:"view" binding:"required,oneof=week month"`
	Date string `form:"date" binding:"required"` // 锚点日期 YYYY-MM-DD（UTC）
}

// CalendarItem 单条预约的简化日历视图
type CalendarItem struct {
	ID              string `json:"id"`
	Time            string `json:"time"` // HH:MM（UTC）
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"` // reserved | completed | cancelled
	CourseTitle     string `json:"course_title,omitempty"`
}

// CalendarDay 一天的聚合
type CalendarDay struct {
	Date         string         `json:"date"` // YYYY-MM-DD
	Weekday      string         `json:"weekday"`
	Reservations []CalendarItem `json:"reservations"`
}

// CalendarSummary 月视图专属的周期汇总
type CalendarSummary struct {
	CompletedReservations int `json:"completed_reservations"`
	UpcomingReservations  int `json:"upcoming_reservations"`
}

// CalendarResponse 日历视图响应
type CalendarResponse struct {
	View    string           `json:"view"`
	From    string           `json:"from"`
	To      string           `json:"to"`
	Days    []CalendarDay    `json:"days"`
	Summary *CalendarSummary `json:"summary,omitempty"` // 仅 month 视图
}
