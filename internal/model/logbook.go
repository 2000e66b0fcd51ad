package model

import "time"

// ── 日志状态常量 ──

const (
	LogbookStatusPending   = "pending"   // 待查阅
	LogbookStatusCommented = "commented" // 已有指导老师评语
	LogbookStatusApproved  = "approved"  // 指导老师已认可
)

// Logbook 实习活动日志表 — 对应 logbooks
// 由申请人创建；评语只能由该申请的指导老师写入
type Logbook struct {
	LogbookID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"logbook_id"`
	RegistrationID string    `gorm:"type:uuid;not null"                             json:"registration_id"`
	UserID         string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Title          string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string    `gorm:"type:text;not null"                             json:"content"`
	ReportKey      *string   `gorm:"type:varchar(255)"                              json:"report_key,omitempty"`
	ActivityDate   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"activity_date"`

	// 评阅子状态
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Comment     *string    `gorm:"type:text" json:"comment,omitempty"`
	CommentedAt *time.Time `json:"commented_at,omitempty"`
	CommentedBy *string    `gorm:"type:uuid" json:"commented_by,omitempty"`

	BaseModel

	// 关联
	Registration *Registration `gorm:"foreignKey:RegistrationID;references:RegistrationID" json:"registration,omitempty"`
}

// TableName 指定表名
func (Logbook) TableName() string { return "logbooks" }

// [自证通过] internal/model/logbook.go
