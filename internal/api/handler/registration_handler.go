package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"simagang/backend/internal/dto"
	"simagang/backend/internal/service"
	pkgerrors "simagang/backend/pkg/errors"
	"simagang/backend/pkg/response"
)

// RegistrationHandler 实习申请模块 HTTP 处理器
type RegistrationHandler struct {
	regSvc service.RegistrationService
}

// NewRegistrationHandler 创建 RegistrationHandler
func NewRegistrationHandler(regSvc service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{regSvc: regSvc}
}

// documentFields multipart 字段名 → 材料槽位
var documentFields = []string{"cover_letter", "cv", "photo", "id_card", "transcript", "recommendation"}

func bindDocuments(c *gin.Context) (*dto.DocumentUploads, error) {
	docs := &dto.DocumentUploads{}
	slots := map[string]**dto.FileUpload{
		"cover_letter":   &docs.CoverLetter,
		"cv":             &docs.CV,
		"photo":          &docs.Photo,
		"id_card":        &docs.IDCard,
		"transcript":     &docs.Transcript,
		"recommendation": &docs.Recommendation,
	}
	for _, field := range documentFields {
		f, err := formFile(c, field)
		if err != nil {
			return nil, err
		}
		*slots[field] = f
	}
	return docs, nil
}

// Submit 提交实习申请（multipart 表单）
// POST /api/v1/registrations
func (h *RegistrationHandler) Submit(c *gin.Context) {
	var req dto.SubmitRegistrationRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	docs, err := bindDocuments(c)
	if err != nil {
		response.BadRequest(c, 10001, "申请材料解析失败")
		return
	}

	result, err := h.regSvc.Submit(c.Request.Context(), userID, email, &req, docs)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.Created(c, result)
}

// GetMine 查询本人申请
// GET /api/v1/registrations/me
func (h *RegistrationHandler) GetMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.regSvc.GetMine(c.Request.Context(), userID)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, result)
}

// Edit 编辑本人申请（重新进入待审核）
// PUT /api/v1/registrations/me
func (h *RegistrationHandler) Edit(c *gin.Context) {
	var req dto.EditRegistrationRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	docs, err := bindDocuments(c)
	if err != nil {
		response.BadRequest(c, 10001, "申请材料解析失败")
		return
	}

	result, err := h.regSvc.Edit(c.Request.Context(), userID, &req, docs)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, result)
}

// List 申请列表（管理员）
// GET /api/v1/registrations
func (h *RegistrationHandler) List(c *gin.Context) {
	var req dto.RegistrationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total, err := h.regSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// Get 申请详情（管理员不限；指导老师仅限分配给自己的申请）
// GET /api/v1/registrations/:id
func (h *RegistrationHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}
	callerEmail, ok := MustGetEmail(c)
	if !ok {
		return
	}

	result, err := h.regSvc.GetByID(c.Request.Context(), id, callerID, callerRole, callerEmail)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, result)
}

// Decide 审核决定（multipart 表单，approved 需附回复函）
// PUT /api/v1/registrations/:id/decision
func (h *RegistrationHandler) Decide(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	var req dto.DecideRegistrationRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	replyLetter, err := formFile(c, "reply_letter")
	if err != nil {
		response.BadRequest(c, 10001, "回复函解析失败")
		return
	}

	result, err := h.regSvc.Decide(c.Request.Context(), callerID, id, &req, replyLetter)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, result)
}

// AssignSupervisor 分配指导老师
// PUT /api/v1/registrations/:id/supervisor
func (h *RegistrationHandler) AssignSupervisor(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	var req dto.AssignSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.regSvc.AssignSupervisor(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, result)
}

// UnassignSupervisor 解除指导老师分配
// DELETE /api/v1/registrations/:id/supervisor
func (h *RegistrationHandler) UnassignSupervisor(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.regSvc.UnassignSupervisor(c.Request.Context(), callerID, id)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, result)
}

// UploadFinalReport 上传结项报告（申请人）
// POST /api/v1/registrations/me/final-report
func (h *RegistrationHandler) UploadFinalReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, err := formFile(c, "report")
	if err != nil || file == nil {
		response.BadRequest(c, 10001, "结项报告文件不能为空")
		return
	}

	result, err := h.regSvc.UploadFinalReport(c.Request.Context(), userID, file)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, result)
}

// VerifyFinalReport 校验结项报告（管理员）
// PUT /api/v1/registrations/:id/final-report/verify
func (h *RegistrationHandler) VerifyFinalReport(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.regSvc.VerifyFinalReport(c.Request.Context(), callerID, id)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, result)
}

// UploadCertificate 上传实习证书（管理员）
// POST /api/v1/registrations/:id/certificate
func (h *RegistrationHandler) UploadCertificate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, err := formFile(c, "certificate")
	if err != nil || file == nil {
		response.BadRequest(c, 10001, "证书文件不能为空")
		return
	}

	result, err := h.regSvc.UploadCertificate(c.Request.Context(), callerID, id, file)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, result)
}

// DownloadDocument 生成材料的限时下载链接
// GET /api/v1/registrations/documents?key=...
func (h *RegistrationHandler) DownloadDocument(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, 10001, "对象 key 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}
	callerEmail, ok := MustGetEmail(c)
	if !ok {
		return
	}

	url, err := h.regSvc.PresignDocument(c.Request.Context(), key, callerID, callerRole, callerEmail)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, gin.H{"url": url})
}

// handleRegistrationError 统一处理申请模块业务错误
func (h *RegistrationHandler) handleRegistrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 12001, "申请不存在")
	case errors.Is(err, service.ErrRegistrationExists):
		response.Conflict(c, 12002, "该邮箱已提交过实习申请")
	case errors.Is(err, service.ErrRegistrationNotPending):
		response.Conflict(c, 12004, "只有待审核的申请可以进行审核决定")
	case errors.Is(err, service.ErrReplyLetterRequired):
		response.BadRequest(c, 12005, "通过申请必须上传回复函")
	case errors.Is(err, service.ErrReviewCommentRequired):
		response.BadRequest(c, 12006, "驳回或要求修改时必须填写审核意见")
	case errors.Is(err, service.ErrRegistrationNotApproved):
		response.Conflict(c, 12007, "申请尚未通过审核")
	case errors.Is(err, service.ErrSupervisorNotAssigned):
		response.Conflict(c, 12008, "该申请未分配指导老师")
	case errors.Is(err, service.ErrFinalReportMissing):
		response.BadRequest(c, 12009, "尚未上传结项报告")
	case errors.Is(err, service.ErrFinalReportNotVerified):
		response.Conflict(c, 12010, "结项报告尚未通过校验")
	case errors.Is(err, service.ErrRegistrationForbidden):
		response.Forbidden(c, 12011, "无权访问该申请")
	case errors.Is(err, service.ErrDocumentNotFound):
		response.NotFound(c, 12012, "材料不存在")
	case errors.Is(err, service.ErrSupervisorNotFound):
		response.NotFound(c, 13001, "指导老师不存在")
	case errors.Is(err, service.ErrSupervisorInactive):
		response.Conflict(c, 13003, "指导老师已停用")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/registration_handler.go
