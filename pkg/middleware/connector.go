package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedock/pkg/internal/service"
)

type connectorKey struct{}

// ConnectorMiddleware 将连接器服务注入到context中.
func ConnectorMiddleware(svc *service.ConnectorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), connectorKey{}, svc)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetConnector 从context中获取连接器服务.
func GetConnector(c *gin.Context) *service.ConnectorService {
	if svc, ok := c.Request.Context().Value(connectorKey{}).(*service.ConnectorService); ok {
		return svc
	}

	return nil
}
