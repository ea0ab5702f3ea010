package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "tutorlink/backend/pkg/errors"
	"tutorlink/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
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

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
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

// writeValidationError 将字段级校验错误写为 400 响应；非校验错误返回 false
func writeValidationError(c *gin.Context, err error) bool {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		response.ErrorWithDetails(c, 400, 10001, "参数校验失败", verr.Fields)
		return true
	}
	return false
}
