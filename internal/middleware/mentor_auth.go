package middleware

import (
	"net/http"

	"mentorloop-go/internal/model"

	"github.com/gin-gonic/gin"
)

// MentorAuthMiddleware 检查用户是否具有导师侧权限。
// 此中间件必须在 AuthMiddleware 之后使用。
func MentorAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 AuthMiddleware 设置的上下文中获取 user 对象
		user, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
			return
		}

		currentUser, ok := user.(*model.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "用户数据类型错误"})
			return
		}

		// 学员账号不能访问审核界面
		if !currentUser.IsMentor() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "权限不足，需要导师权限"})
			return
		}

		c.Next()
	}
}
