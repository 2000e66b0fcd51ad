package dto

import "io"

// ── 申请模块 DTO ──

// FileUpload 上传文件的通用载体（multipart → 对象存储）
type FileUpload struct {
	OriginalName string
	ContentType  string
	Size         int64
	Reader       io.Reader
}

// DocumentUploads 申请材料集合，字段为 nil 表示未上传
type DocumentUploads struct {
	CoverLetter    *FileUpload
	CV             *FileUpload
	Photo          *FileUpload
	IDCard         *FileUpload
	Transcript     *FileUpload
	Recommendation *FileUpload
}

// SubmitRegistrationRequest 提交实习申请（multipart 表单）
type SubmitRegistrationRequest struct {
	Name        string `form:"name"        binding:"required,min=2,max=100"`
	BirthPlace  string `form:"birth_place"`
	BirthDate   string `form:"birth_date"`
	Gender      string `form:"gender"`
	Address     string `form:"address"`
	Phone       string `form:"phone"`
	Institution string `form:"institution" binding:"required"`
	Program     string `form:"program"     binding:"required"`
	Degree      string `form:"degree"`
	Semester    string `form:"semester"`
	GPA         string `form:"gpa"`
	StartDate   string `form:"start_date"  binding:"required"`
	EndDate     string `form:"end_date"    binding:"required"`
	Objective   string `form:"objective"`
	Division    string `form:"division"`
}

// EditRegistrationRequest 编辑申请（所有字段可选；任何编辑都会把状态重置回 pending）
type EditRegistrationRequest struct {
	Name        *string `form:"name"        binding:"omitempty,min=2,max=100"`
	BirthPlace  *string `form:"birth_place"`
	BirthDate   *string `form:"birth_date"`
	Gender      *string `form:"gender"`
	Address     *string `form:"address"`
	Phone       *string `form:"phone"`
	Institution *string `form:"institution"`
	Program     *string `form:"program"`
	Degree      *string `form:"degree"`
	Semester    *string `form:"semester"`
	GPA         *string `form:"gpa"`
	StartDate   *string `form:"start_date"`
	EndDate     *string `form:"end_date"`
	Objective   *string `form:"objective"`
	Division    *string `form:"division"`
}

// DecideRegistrationRequest 管理员审核决定
// approved 需随附回复函（reply letter）文件；rejected / needs_correction 需填写意见
type DecideRegistrationRequest struct {
	Decision string `form:"decision" binding:"required,oneof=approved rejected needs_correction"`
	Comment  string `form:"comment"`
}

// AssignSupervisorRequest 分配指导老师
type AssignSupervisorRequest struct {
	SupervisorID string `json:"supervisor_id" binding:"required,uuid"`
}

// RegistrationListRequest 申请列表查询
type RegistrationListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected needs_correction"`
}

// RegistrationResponse 申请详情响应
type RegistrationResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	BirthPlace  string `json:"birth_place,omitempty"`
	BirthDate   string `json:"birth_date,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Institution string `json:"institution"`
	Program     string `json:"program"`
	Degree      string `json:"degree,omitempty"`
	Semester    string `json:"semester,omitempty"`
	GPA         string `json:"gpa,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Objective   string `json:"objective,omitempty"`
	Division    string `json:"division,omitempty"`

	CoverLetterKey    *string `json:"cover_letter_key,omitempty"`
	CVKey             *string `json:"cv_key,omitempty"`
	PhotoKey          *string `json:"photo_key,omitempty"`
	IDCardKey         *string `json:"id_card_key,omitempty"`
	TranscriptKey     *string `json:"transcript_key,omitempty"`
	RecommendationKey *string `json:"recommendation_key,omitempty"`
	ReplyLetterKey    *string `json:"reply_letter_key,omitempty"`
	CertificateKey    *string `json:"certificate_key,omitempty"`

	Status        string  `json:"status"`
	ReviewComment *string `json:"review_comment,omitempty"`
	ApprovedAt    string  `json:"approved_at,omitempty"`
	RejectedAt    string  `json:"rejected_at,omitempty"`

	Supervisor *SupervisorBrief `json:"supervisor,omitempty"`

	FinalReportKey        *string `json:"final_report_key,omitempty"`
	FinalReportUploadedAt string  `json:"final_report_uploaded_at,omitempty"`
	FinalReportVerified   bool    `json:"final_report_verified"`
	FinalReportVerifiedAt string  `json:"final_report_verified_at,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SupervisorBrief 指导老师简要信息（嵌入申请响应）
type SupervisorBrief struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Division string `json:"division,omitempty"`
}

// [自证通过] internal/dto/registration.go
