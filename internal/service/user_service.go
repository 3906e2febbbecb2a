// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentorloop-go/internal/apperr"
	"mentorloop-go/internal/model"
	"mentorloop-go/internal/repository"
	"mentorloop-go/pkg/database"
	"mentorloop-go/pkg/hash"
	"mentorloop-go/pkg/log"
	"mentorloop-go/pkg/mail"
	"mentorloop-go/pkg/token"

	"gorm.io/gorm"
)

// UserService 接口定义了所有与账户相关的业务操作。
type UserService interface {
	Register(username, password, email, name string) (*model.User, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	GetProfile(username string) (*model.User, error)
	Logout(tokenString string) error
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo    repository.UserRepository
	studentRepo repository.StudentRepository
	jwtManager  *token.JWTManager
	mailSender  mail.Sender
}

// NewUserService 创建一个新的 UserService 实例。
// mailSender 可以为 nil，此时注册流程跳过欢迎邮件。
func NewUserService(userRepo repository.UserRepository, studentRepo repository.StudentRepository, jwtManager *token.JWTManager, mailSender mail.Sender) UserService {
	return &userService{
		userRepo:    userRepo,
		studentRepo: studentRepo,
		jwtManager:  jwtManager,
		mailSender:  mailSender,
	}
}

// Register 处理学员注册逻辑：创建账户、初始化 phase1 档案并异步发送欢迎邮件。
func (s *userService) Register(username, password, email, name string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, apperr.InvalidInputf("用户名和密码不能为空")
	}

	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, apperr.InvalidInputf("用户名 '%s' 已存在", username)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 创建新账户
	newUser := &model.User{
		Username: username,
		Password: hashedPassword,
		Email:    email,
		Role:     model.UserRoleStudent,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}

	// 4. 初始化学员档案，新学员固定从 phase1 开始
	if name == "" {
		name = username
	}
	now := time.Now()
	profile := &model.Student{
		UserID:         newUser.ID,
		Name:           name,
		Phase:          model.PhaseOne,
		PhaseStartedAt: now,
		LastActiveAt:   now,
	}
	if err := s.studentRepo.Create(profile); err != nil {
		log.Errorf("[UserService] 创建学员档案失败, username: %s, error: %v", username, err)
		return nil, fmt.Errorf("创建学员档案失败: %w", err)
	}

	// 5. 异步发送欢迎邮件，失败只记日志，不影响注册结果
	if s.mailSender != nil && email != "" {
		go func() {
			body := fmt.Sprintf("你好 %s，\n\n欢迎加入训练营！你的导师团队已经就位，有任何问题都可以直接在对话里提问。\n\n祝学习顺利！", name)
			if err := s.mailSender.Send(email, "欢迎加入训练营", body); err != nil {
				log.Warnf("[UserService] 发送欢迎邮件失败, email: %s, error: %v", email, err)
			}
		}()
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(username, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", errors.New("invalid credentials")
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", errors.New("invalid credentials")
	}

	// 3. 生成 access token 和 refresh token
	accessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// GetProfile 根据用户名获取账户信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("用户 '%s' 不存在", username)
		}
		return nil, err
	}
	return user, nil
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
func (s *userService) Logout(tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	// 使用 Redis 实现一个简单的 token 黑名单。
	// token 的剩余有效期将作为 Redis key 的过期时间。
	expiration := time.Until(claims.ExpiresAt.Time)
	return database.RDB.Set(context.Background(), "blacklist:"+tokenString, "true", expiration).Err()
}

// RefreshToken 在 refresh token 有效的前提下签发一对新 token。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	// 1. 验证 refresh token 是否有效
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	// 2. 检查用户是否存在
	user, err := s.userRepo.FindByUsername(claims.Username)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	// 3. 签发新的 token
	newAccessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	return newAccessToken, newRefreshToken, nil
}
