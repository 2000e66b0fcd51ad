package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"simagang/backend/internal/dto"
	"simagang/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// MustGetEmail 从 Gin 上下文中安全提取 email。
func MustGetEmail(c *gin.Context) (string, bool) {
	return mustGetString(c, "email")
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// getTokenExpiry 提取 JWT 中间件注入的 token 过期时间
func getTokenExpiry(c *gin.Context) time.Time {
	if v, exists := c.Get("token_exp"); exists {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

// formFile 从 multipart 表单中提取单个文件；字段缺失时返回 (nil, nil)
func formFile(c *gin.Context, field string) (*dto.FileUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return openFormFile(fh)
}

func openFormFile(fh *multipart.FileHeader) (*dto.FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	return &dto.FileUpload{
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Reader:       f,
	}, nil
}

// [自证通过] internal/api/handler/context_helper.go
