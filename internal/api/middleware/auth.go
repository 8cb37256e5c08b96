package middleware

import (
	"errors"
	"strings"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	mayMutateKey = "may_mutate"
	subjectKey   = "subject"
)

// Claims 存取權杖內容
type Claims struct {
	Privileges []string `json:"privileges"`
	jwt.RegisteredClaims
}

// Auth 解析 Bearer 權杖並記錄是否可修改資料。
// 未啟用時所有人都可修改；未帶權杖的請求只能讀取。
func Auth(cfg config.AuthConfig) gin.HandlerFunc {
	privilege := cfg.MutatePrivilege
	if privilege == "" {
		privilege = "edit"
	}

	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(parserOpts...)
	secret := []byte(cfg.JWTSecret)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Set(mayMutateKey, true)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(mayMutateKey, false)
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			common.WriteError(c, common.ErrUnauthorized)
			return
		}

		claims := &Claims{}
		_, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil {
			common.LogWarn("Invalid access token",
				zap.String("path", c.Request.URL.Path),
				zap.Bool("expired", errors.Is(err, jwt.ErrTokenExpired)),
				zap.Error(err),
			)
			common.WriteError(c, common.ErrUnauthorized)
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Set(mayMutateKey, hasPrivilege(claims.Privileges, privilege))
		c.Next()
	}
}

// CanMutate 目前請求是否具有修改權限
func CanMutate(c *gin.Context) bool {
	return c.GetBool(mayMutateKey)
}

// RequireMutate 沒有修改權限時回應 403
func RequireMutate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CanMutate(c) {
			common.WriteError(c, common.ErrForbidden)
			return
		}
		c.Next()
	}
}

func hasPrivilege(list []string, want string) bool {
	for _, p := range list {
		if strings.EqualFold(strings.TrimSpace(p), want) {
			return true
		}
	}
	return false
}
