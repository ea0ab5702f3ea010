package dto

import "time"

// ── 预约模块 DTO ──

// CreateReservationRequest 创建预约请求
// date/time 为 UTC；服务端组合为绝对时刻，不信任客户端计算的任何期限
type CreateReservationRequest struct {
	CourseID  string `json:"course_id"  binding:"required,uuid"`
	TeacherID string `json:"teacher_id" binding:"required,uuid"`
	Date      string `json:"date"       binding:"required"` // YYYY-MM-DD
	Time      string `json:"time"       binding:"required"` // HH:MM
}

// LessonSnapshot 课时快照
// 创建响应中乐观地按 "确认后" 口径展示（used+1），确认是预期路径
type LessonSnapshot struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// ReservationResponse 预约信息响应
type ReservationResponse struct {
	ID               string     `json:"id"`
	CourseID         string     `json:"course_id"`
	CourseTitle      string     `json:"course_title,omitempty"`
	TeacherID        string     `json:"teacher_id"`
	StudentID        string     `json:"student_id"`
	ReserveTime      time.Time  `json:"reserve_time"`
	TeacherStatus    string     `json:"teacher_status"`
	StudentStatus    string     `json:"student_status"`
	OverallStatus    string     `json:"overall_status"`
	ResponseDeadline *time.Time `json:"response_deadline,omitempty"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CreateReservationResponse 创建预约响应
type CreateReservationResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Lessons     LessonSnapshot      `json:"lessons"`
}

// RejectReservationRequest 教师拒绝预约请求
type RejectReservationRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// CompleteReservationResponse 标记完成响应
type CompleteReservationResponse struct {
	Reservation    ReservationResponse `json:"reservation"`
	FullyCompleted bool                `json:"fully_completed"`
}

// ReservationListRequest 预约列表查询参数
type ReservationListRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
