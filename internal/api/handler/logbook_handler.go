package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"simagang/backend/internal/dto"
	"simagang/backend/internal/service"
	"simagang/backend/pkg/response"
)

// LogbookHandler 实习日志模块 HTTP 处理器
type LogbookHandler struct {
	logbookSvc service.LogbookService
}

// NewLogbookHandler 创建 LogbookHandler
func NewLogbookHandler(logbookSvc service.LogbookService) *LogbookHandler {
	return &LogbookHandler{logbookSvc: logbookSvc}
}

// Create 提交实习日志（实习生），可附带报告附件
// POST /api/v1/logbooks
func (h *LogbookHandler) Create(c *gin.Context) {
	var req dto.CreateLogbookRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	report, err := formFile(c, "report")
	if err != nil {
		response.BadRequest(c, 10001, "报告附件读取失败")
		return
	}

	result, err := h.logbookSvc.Create(c.Request.Context(), userID, &req, report)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.Created(c, result)
}

// ListMine 查询本人日志列表（实习生）
// GET /api/v1/logbooks/me
func (h *LogbookHandler) ListMine(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	items, total, err := h.logbookSvc.ListMine(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// ListForRegistration 按申请查询日志列表
// 管理员不受限；指导老师仅限名下学生；实习生仅限本人申请
// GET /api/v1/registrations/:id/logbooks
func (h *LogbookHandler) ListForRegistration(c *gin.Context) {
	registrationID := c.Param("id")
	if registrationID == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	items, total, err := h.logbookSvc.ListForRegistration(c.Request.Context(), registrationID, userID, role, email, &req)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// Comment 批注日志（指导老师），空批注清除并回到待批注状态
// PUT /api/v1/logbooks/:id/comment
func (h *LogbookHandler) Comment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "日志ID不能为空")
		return
	}

	var req dto.CommentLogbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	result, err := h.logbookSvc.Comment(c.Request.Context(), id, email, &req)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OK(c, result)
}

// Approve 审核通过日志（指导老师）
// PUT /api/v1/logbooks/:id/approve
func (h *LogbookHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "日志ID不能为空")
		return
	}

	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	result, err := h.logbookSvc.Approve(c.Request.Context(), id, email)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除本人日志（实习生）
// DELETE /api/v1/logbooks/:id
func (h *LogbookHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "日志ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.logbookSvc.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleLogbookError 统一处理日志模块业务错误
func (h *LogbookHandler) handleLogbookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLogbookNotFound):
		response.NotFound(c, 14001, "日志不存在")
	case errors.Is(err, service.ErrLogbookForbidden):
		response.Forbidden(c, 14002, "无权操作该日志")
	case errors.Is(err, service.ErrNotAssignedSupervisor):
		response.Forbidden(c, 14003, "仅限被分配的指导老师操作")
	case errors.Is(err, service.ErrInvalidActivityDate):
		response.BadRequest(c, 14004, "活动日期格式不正确，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 12001, "申请记录不存在")
	case errors.Is(err, service.ErrRegistrationNotApproved):
		response.Conflict(c, 12007, "申请尚未通过审核")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/logbook_handler.go
