package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedock/pkg/internal/handle"
)

// RegisterStatsRoutes 注册上传统计路由.
func RegisterStatsRoutes(g *gin.RouterGroup) {
	statsRoutes := g.Group("/stats")
	{
		statsRoutes.GET("/uploads", handle.UploadJournal)         // 最近上传记录
		statsRoutes.GET("/uploads/summary", handle.UploadSummary) // 按资源类型聚合
	}
}
