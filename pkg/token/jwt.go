// Package token 负责 JWT 的签发与校验，承载学员/导师的身份与角色。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 管理 access/refresh token 的签发与校验。
type JWTManager struct {
	secretKey       []byte        // 签名与校验共用的密钥
	accessTokenDur  time.Duration // access token 有效期
	refreshTokenDur time.Duration // refresh token 有效期
}

// CustomClaims 是写入 token 的业务声明。Role 取 student / mentor，
// 导师侧路由据此在中间件层做权限把关。
type CustomClaims struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
// accessTokenExpireHours 以小时计，refreshTokenExpireDays 以天计。
func NewJWTManager(secret string, accessTokenExpireHours, refreshTokenExpireDays int) *JWTManager {
	return &JWTManager{
		secretKey:       []byte(secret),
		accessTokenDur:  time.Hour * time.Duration(accessTokenExpireHours),
		refreshTokenDur: time.Duration(refreshTokenExpireDays) * 24 * time.Hour,
	}
}

// GenerateToken 为指定用户签发一个 access token。
func (m *JWTManager) GenerateToken(userID uint, username, role string) (string, error) {
	return m.signed(userID, username, role, m.accessTokenDur)
}

// GenerateRefreshToken 为指定用户签发一个 refresh token，有效期更长。
func (m *JWTManager) GenerateRefreshToken(userID uint, username, role string) (string, error) {
	return m.signed(userID, username, role, m.refreshTokenDur)
}

func (m *JWTManager) signed(userID uint, username, role string, dur time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(dur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken 校验 token 字符串，有效时返回其中的 CustomClaims。
// 签名不匹配、已过期或签名算法不是 HMAC 时返回错误。
func (m *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
