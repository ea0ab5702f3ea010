package model

// Purchase 购课记录表 — 对应 purchases
// 由外部支付模块写入；预约模块只读取剩余课时并在确认/取消时增减 quantity_used
type Purchase struct {
	PurchaseID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"purchase_id"`
	StudentID     string `gorm:"type:uuid;not null;index:idx_purchase_student_course" json:"student_id"`
	CourseID      string `gorm:"type:uuid;not null;index:idx_purchase_student_course" json:"course_id"`
	QuantityTotal int    `gorm:"type:smallint;not null"                         json:"quantity_total"`
	QuantityUsed  int    `gorm:"type:smallint;not null;default:0"               json:"quantity_used"`
	SoftDeleteModel
}

// TableName 指定表名
func (Purchase) TableName() string { return "purchases" }

// Remaining 剩余课时数
func (p *Purchase) Remaining() int {
	return p.QuantityTotal - p.QuantityUsed
}
