// Package main 是应用程序的入口点。
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentorloop-go/internal/config"
	"mentorloop-go/internal/handler"
	"mentorloop-go/internal/middleware"
	"mentorloop-go/internal/model"
	"mentorloop-go/internal/pipeline"
	"mentorloop-go/internal/repository"
	"mentorloop-go/internal/service"
	"mentorloop-go/internal/tools"
	"mentorloop-go/pkg/database"
	"mentorloop-go/pkg/es"
	"mentorloop-go/pkg/kafka"
	"mentorloop-go/pkg/llm"
	"mentorloop-go/pkg/log"
	"mentorloop-go/pkg/mail"
	"mentorloop-go/pkg/storage"
	"mentorloop-go/pkg/tika"
	"mentorloop-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	studentRepo := repository.NewStudentRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	draftRepo := repository.NewDraftRepository(database.DB)
	followupRepo := repository.NewFollowupRepository(database.DB)
	memoryRepo := repository.NewMemoryRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	tikaClient := tika.NewClient(cfg.Tika)
	llmClient := llm.NewClient(cfg.LLM)
	mailSender := mail.NewSender(cfg.Mail)

	draftEventHub := service.NewDraftEventHub()
	userService := service.NewUserService(userRepo, studentRepo, jwtManager, mailSender)
	studentService := service.NewStudentService(studentRepo, followupRepo)
	uploadService := service.NewUploadService(cfg.MinIO.BucketName)
	conversationService := service.NewConversationService(conversationRepo, messageRepo, studentRepo, service.KafkaTaskProducer{})
	draftService := service.NewDraftService(draftRepo, messageRepo, studentRepo, draftEventHub)
	catalog := service.NewESResourceCatalog(cfg.Elasticsearch)
	assembler := service.NewContextAssembler(messageRepo, memoryRepo, catalog)

	// 6. 注册智能体工具
	registry := tools.NewRegistry()
	blobStore := tools.NewMinioBlobStore()
	registry.MustRegister(tools.NewGetMemoryTool(memoryRepo))
	registry.MustRegister(tools.NewSetMemoryTool(memoryRepo))
	registry.MustRegister(tools.NewAppendMemoryTool(memoryRepo))
	registry.MustRegister(tools.NewRoadmapTool(llmClient, studentRepo, cfg.MinIO, blobStore))
	registry.MustRegister(tools.NewVoiceNoteTool(cfg.MinIO, cfg.Agent.VoiceNotes, blobStore))
	registry.MustRegister(tools.NewFollowupTool(followupRepo))

	// 7. 初始化草稿生成管道并启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(
		llmClient,
		assembler,
		registry,
		draftService,
		studentRepo,
		messageRepo,
		tikaClient,
		cfg.MinIO.BucketName,
		cfg.Agent.MaxToolRounds,
	)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 7.1 幂等导入资源目录种子数据
	if cfg.Agent.ResourceSeedFile != "" {
		go seedResources(context.Background(), cfg.Agent.ResourceSeedFile, cfg.Elasticsearch.IndexName)
	}

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	userHandler := handler.NewUserHandler(userService, studentService)
	chatHandler := handler.NewChatHandler(conversationService, studentService)
	uploadHandler := handler.NewUploadHandler(uploadService, studentService)
	mentorHandler := handler.NewMentorHandler(draftService, studentService, conversationService)
	wsHandler := handler.NewWSHandler(draftEventHub)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", userHandler.RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", userHandler.GetProfile)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		// Chat 路由组：学员侧对话
		chat := apiV1.Group("/chat")
		chat.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			chat.POST("/messages", chatHandler.SendMessage)
			chat.GET("/messages", chatHandler.ListMessages)
			chat.GET("/threads", chatHandler.ListThreads)
		}

		// Upload 路由组，需要认证
		upload := apiV1.Group("/upload")
		upload.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			upload.POST("/attachment", uploadHandler.UploadAttachment)
		}

		// Mentor 路由组：审核与学员管理，需要导师权限
		mentor := apiV1.Group("/mentor")
		mentor.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.MentorAuthMiddleware())
		{
			mentor.GET("/drafts", mentorHandler.ListPendingDrafts)
			mentor.GET("/conversations/:id/drafts", mentorHandler.ListConversationDrafts)
			mentor.POST("/drafts/:id/approve", mentorHandler.ApproveDraft)
			mentor.POST("/drafts/:id/edit-approve", mentorHandler.EditAndApproveDraft)
			mentor.POST("/drafts/:id/reject", mentorHandler.RejectDraft)
			mentor.PUT("/drafts/:id", mentorHandler.UpdateDraft)

			mentor.GET("/students", mentorHandler.ListStudents)
			mentor.GET("/students/inactive", mentorHandler.ListInactiveStudents)
			mentor.GET("/students/:id/messages", mentorHandler.GetStudentMessages)
			mentor.POST("/students/:id/phase-complete", mentorHandler.MarkPhaseComplete)
			mentor.PUT("/students/:id/research-topic", mentorHandler.SetResearchTopic)

			mentor.GET("/followups", mentorHandler.ListFollowups)
			mentor.POST("/followups/:id/resolve", mentorHandler.ResolveFollowup)

			// 草稿事件推送 (WebSocket)
			mentor.GET("/ws", wsHandler.SubscribeDraftEvents)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者是一个循环，会在程序退出时自然结束。
	log.Info("服务已优雅关闭")
}

// seedResources 从 JSON 文件幂等导入学习资源目录到 Elasticsearch。
// 文档 ID 固定为 ResourceID，重复导入只是覆盖同一份文档。
func seedResources(ctx context.Context, seedFile, indexName string) {
	data, err := os.ReadFile(seedFile)
	if err != nil {
		log.Infof("seedResources: 种子文件 '%s' 不可用，跳过资源导入: %v", seedFile, err)
		return
	}

	var resources []model.Resource
	if err := json.Unmarshal(data, &resources); err != nil {
		log.Errorf("seedResources: 解析种子文件失败: %v", err)
		return
	}

	imported := 0
	for _, res := range resources {
		if res.ResourceID == "" {
			log.Warnf("seedResources: 跳过缺少 resourceId 的条目: %s", res.Title)
			continue
		}
		if err := es.IndexResource(ctx, indexName, res); err != nil {
			log.Errorf("seedResources: 导入资源 '%s' 失败: %v", res.ResourceID, err)
			continue
		}
		imported++
	}
	log.Infof("seedResources: 资源目录导入完成, total: %d, imported: %d", len(resources), imported)
}
