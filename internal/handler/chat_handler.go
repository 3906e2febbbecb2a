package handler

import (
	"net/http"

	"mentorloop-go/internal/model"
	"mentorloop-go/internal/service"
	"mentorloop-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler 负责学员侧的对话 API。
type ChatHandler struct {
	conversationService service.ConversationService
	studentService      service.StudentService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(conversationService service.ConversationService, studentService service.StudentService) *ChatHandler {
	return &ChatHandler{
		conversationService: conversationService,
		studentService:      studentService,
	}
}

// studentFromContext 解析当前登录用户对应的学员档案。
func (h *ChatHandler) studentFromContext(c *gin.Context) (*model.Student, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	student, err := h.studentService.GetByUserID(user.ID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return student, true
}

// SendMessageRequest 定义了学员发消息 API 的请求体结构。
// 附件需要先经由上传接口换取存储路径。
type SendMessageRequest struct {
	Content     string             `json:"content" binding:"required"`
	Attachments []model.Attachment `json:"attachments"`
}

// SendMessage 处理学员发送消息的请求。消息落库即确认，
// 回复草稿在后台生成并等待导师审核，这里不等待。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	student, ok := h.studentFromContext(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：消息内容不能为空",
		})
		return
	}

	msg, err := h.conversationService.SubmitStudentMessage(c.Request.Context(), student, req.Content, req.Attachments)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Infof("学员 %d 发送消息 %s", student.ID, msg.ID)
	respondOK(c, msg)
}

// ListMessages 返回学员可见的全部消息（时间升序）。
func (h *ChatHandler) ListMessages(c *gin.Context) {
	student, ok := h.studentFromContext(c)
	if !ok {
		return
	}

	messages, err := h.conversationService.ListVisibleMessages(student.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, messages)
}

// ListThreads 返回按主题分组的线程视图。
func (h *ChatHandler) ListThreads(c *gin.Context) {
	student, ok := h.studentFromContext(c)
	if !ok {
		return
	}

	threads, err := h.conversationService.ListThreads(student.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, threads)
}
