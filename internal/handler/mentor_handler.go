package handler

import (
	"net/http"
	"strconv"

	"mentorloop-go/internal/model"
	"mentorloop-go/internal/service"
	"mentorloop-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// MentorHandler 负责导师侧的审核与学员管理 API。
// 所有路由都挂在 AuthMiddleware + MentorAuthMiddleware 之后。
type MentorHandler struct {
	draftService        service.DraftService
	studentService      service.StudentService
	conversationService service.ConversationService
}

// NewMentorHandler 创建一个新的 MentorHandler 实例。
func NewMentorHandler(
	draftService service.DraftService,
	studentService service.StudentService,
	conversationService service.ConversationService,
) *MentorHandler {
	return &MentorHandler{
		draftService:        draftService,
		studentService:      studentService,
		conversationService: conversationService,
	}
}

// ListPendingDrafts 返回全部待审草稿（分诊视图），附带学员信息与触发消息。
func (h *MentorHandler) ListPendingDrafts(c *gin.Context) {
	views, err := h.draftService.ListAllPending()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, views)
}

// ListConversationDrafts 返回某个会话内的待审草稿。
func (h *MentorHandler) ListConversationDrafts(c *gin.Context) {
	conversationID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	drafts, err := h.draftService.ListPending(conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, drafts)
}

// ApproveDraftRequest 定义审批请求体。content 非空时按"编辑后批准"处理，
// attachments 是导师额外补充的附件（只增不减）。
type ApproveDraftRequest struct {
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"attachments"`
}

// ApproveDraft 批准一条草稿并发布为学员可见消息。重复批准是幂等的。
func (h *MentorHandler) ApproveDraft(c *gin.Context) {
	draftID := c.Param("id")

	var req ApproveDraftRequest
	// 空请求体等价于原样批准
	_ = c.ShouldBindJSON(&req)

	var (
		msg *model.Message
		err error
	)
	if req.Content != "" {
		msg, err = h.draftService.EditAndApprove(draftID, req.Content, req.Attachments)
	} else {
		msg, err = h.draftService.Approve(draftID, req.Attachments)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	log.Infof("草稿 %s 审批通过，发布消息 %s", draftID, msg.ID)
	respondOK(c, msg)
}

// EditApproveDraftRequest 定义编辑后批准的请求体。
type EditApproveDraftRequest struct {
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"attachments"`
}

// EditAndApproveDraft 以导师改写后的内容批准并发布草稿。
// 改写为空是无效输入，由服务层统一拒绝。
func (h *MentorHandler) EditAndApproveDraft(c *gin.Context) {
	draftID := c.Param("id")

	var req EditApproveDraftRequest
	_ = c.ShouldBindJSON(&req)

	msg, err := h.draftService.EditAndApprove(draftID, req.Content, req.Attachments)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Infof("草稿 %s 经编辑后审批通过，发布消息 %s", draftID, msg.ID)
	respondOK(c, msg)
}

// RejectDraftRequest 定义驳回请求体。
type RejectDraftRequest struct {
	Reason string `json:"reason"`
}

// RejectDraft 驳回一条草稿。草稿保留在 drafts 表以备审计，学员不可见。
func (h *MentorHandler) RejectDraft(c *gin.Context) {
	draftID := c.Param("id")

	var req RejectDraftRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.draftService.Reject(draftID, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	log.Infof("草稿 %s 已驳回", draftID)
	respondOK(c, nil)
}

// UpdateDraftRequest 定义草稿编辑请求体。
type UpdateDraftRequest struct {
	Content string `json:"content" binding:"required"`
}

// UpdateDraft 修改待审草稿的内容，状态保持 pending。
func (h *MentorHandler) UpdateDraft(c *gin.Context) {
	draftID := c.Param("id")

	var req UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：content 不能为空",
		})
		return
	}

	draft, err := h.draftService.UpdateContent(draftID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, draft)
}

// ListStudents 返回全部学员档案。
func (h *MentorHandler) ListStudents(c *gin.Context) {
	students, err := h.studentService.ListAll()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, students)
}

// ListInactiveStudents 返回超过指定天数未活跃的学员，默认阈值见 service 层。
func (h *MentorHandler) ListInactiveStudents(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))
	students, err := h.studentService.ListInactive(days)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, students)
}

// GetStudentMessages 返回某个学员的完整消息日志（导师复核视角）。
func (h *MentorHandler) GetStudentMessages(c *gin.Context) {
	studentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	messages, err := h.conversationService.ListVisibleMessages(studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, messages)
}

// MarkPhaseComplete 将学员从 phase1 转入 phase2。
func (h *MentorHandler) MarkPhaseComplete(c *gin.Context) {
	studentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	student, err := h.studentService.MarkPhaseComplete(studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Infof("学员 %d 转入 %s 阶段", studentID, student.Phase)
	respondOK(c, student)
}

// SetResearchTopicRequest 定义研究方向设置请求体。
type SetResearchTopicRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// SetResearchTopic 设置学员的研究方向。
func (h *MentorHandler) SetResearchTopic(c *gin.Context) {
	studentID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req SetResearchTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：topic 不能为空",
		})
		return
	}

	student, err := h.studentService.SetResearchTopic(studentID, req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, student)
}

// ListFollowups 返回全部待办跟进项。
func (h *MentorHandler) ListFollowups(c *gin.Context) {
	followups, err := h.studentService.ListPendingFollowups()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, followups)
}

// ResolveFollowup 将一条跟进项标记为已完成。
func (h *MentorHandler) ResolveFollowup(c *gin.Context) {
	followupID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.studentService.ResolveFollowup(followupID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// uintParam 解析路径参数为 uint，失败时直接写 400。
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的路径参数: " + name,
		})
		return 0, false
	}
	return uint(v), true
}
