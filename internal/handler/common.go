// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"mentorloop-go/internal/apperr"
	"mentorloop-go/internal/model"

	"github.com/gin-gonic/gin"
)

// currentUser 从 AuthMiddleware 注入的上下文中取出登录用户。
func currentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return nil, false
	}
	user, ok := v.(*model.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "用户数据类型错误"})
		return nil, false
	}
	return user, true
}

// respondError 按错误分类映射 HTTP 状态码并返回统一错误结构。
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"code":    status,
		"message": err.Error(),
	})
}

// respondOK 返回 code/message/data 形式的成功响应。
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    data,
	})
}
