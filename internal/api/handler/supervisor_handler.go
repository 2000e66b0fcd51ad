package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"simagang/backend/internal/dto"
	"simagang/backend/internal/service"
	"simagang/backend/pkg/response"
)

// SupervisorHandler 指导老师模块 HTTP 处理器
type SupervisorHandler struct {
	supSvc service.SupervisorService
}

// NewSupervisorHandler 创建 SupervisorHandler
func NewSupervisorHandler(supSvc service.SupervisorService) *SupervisorHandler {
	return &SupervisorHandler{supSvc: supSvc}
}

// Create 创建指导老师（管理员）
// POST /api/v1/supervisors
func (h *SupervisorHandler) Create(c *gin.Context) {
	var req dto.CreateSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.supSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSupervisorError(c, err)
		return
	}

	response.Created(c, result)
}

// List 指导老师列表（管理员）
// GET /api/v1/supervisors
func (h *SupervisorHandler) List(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total, err := h.supSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleSupervisorError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// Get 指导老师详情（管理员）
// GET /api/v1/supervisors/:id
func (h *SupervisorHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "指导老师ID不能为空")
		return
	}

	result, err := h.supSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSupervisorError(c, err)
		return
	}

	response.OK(c, result)
}

// Update 更新指导老师资料（管理员）
// PUT /api/v1/supervisors/:id
func (h *SupervisorHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "指导老师ID不能为空")
		return
	}

	var req dto.UpdateSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.supSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleSupervisorError(c, err)
		return
	}

	response.OK(c, result)
}

// SetStatus 启用 / 停用指导老师（管理员）
// PUT /api/v1/supervisors/:id/status
func (h *SupervisorHandler) SetStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "指导老师ID不能为空")
		return
	}

	var req dto.SetSupervisorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.supSvc.SetStatus(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleSupervisorError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除指导老师，名下学生自动解除分配（管理员）
// DELETE /api/v1/supervisors/:id
func (h *SupervisorHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "指导老师ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.supSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleSupervisorError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetStudents 按 ID 查询某位老师名下学生（管理员）
// GET /api/v1/supervisors/:id/students
func (h *SupervisorHandler) GetStudents(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "指导老师ID不能为空")
		return
	}

	students, err := h.supSvc.GetStudentsByID(c.Request.Context(), id)
	if err != nil {
		h.handleSupervisorError(c, err)
		return
	}

	response.OK(c, gin.H{"list": students})
}

// GetMyStudents 指导老师查询本人名下学生
// GET /api/v1/supervisors/me/students
func (h *SupervisorHandler) GetMyStudents(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	students, err := h.supSvc.GetStudents(c.Request.Context(), email)
	if err != nil {
		h.handleSupervisorError(c, err)
		return
	}

	response.OK(c, gin.H{"list": students})
}

// handleSupervisorError 统一处理指导老师模块业务错误
func (h *SupervisorHandler) handleSupervisorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSupervisorNotFound):
		response.NotFound(c, 13001, "指导老师不存在")
	case errors.Is(err, service.ErrSupervisorExists):
		response.Conflict(c, 13002, "该邮箱已注册为指导老师")
	case errors.Is(err, service.ErrSupervisorInactive):
		response.Conflict(c, 13003, "指导老师已停用")
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, 11001, "该邮箱已被注册")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/supervisor_handler.go
