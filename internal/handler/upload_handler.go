package handler

import (
	"net/http"

	"mentorloop-go/internal/service"
	"mentorloop-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UploadHandler 负责学员附件上传 API。
type UploadHandler struct {
	uploadService  service.UploadService
	studentService service.StudentService
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(uploadService service.UploadService, studentService service.StudentService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, studentService: studentService}
}

// UploadAttachment 接收 multipart 文件并写入对象存储，
// 返回的附件描述随后挂到学员消息上。
func (h *UploadHandler) UploadAttachment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	student, err := h.studentService.GetByUserID(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求：缺少 file 字段",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer file.Close()

	attachment, err := h.uploadService.UploadAttachment(c.Request.Context(), student.ID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Infof("学员 %d 上传附件 %s 成功", student.ID, fileHeader.Filename)
	respondOK(c, attachment)
}
