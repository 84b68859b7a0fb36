package handle

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedock/pkg/internal/service"
	"github.com/yeisme/filedock/pkg/log"
	"github.com/yeisme/filedock/pkg/middleware"
)

const defaultSummaryWindow = 24 * time.Hour

// doJournal 统一取出上传日志服务并处理错误输出.
func doJournal(c *gin.Context, errLogMsg string, fn func(j *service.JournalService) (any, error)) {
	svc := middleware.GetConnector(c)
	if svc == nil || svc.Journal() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upload journal disabled"})
		return
	}

	data, err := fn(svc.Journal())
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg(errLogMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, data)
}

// parseSince 支持 RFC3339 时间或相对时长（例如 24h），空值返回 now-def.
func parseSince(v string, now time.Time, def time.Duration) (time.Time, error) {
	if v == "" {
		return now.Add(-def), nil
	}

	if d, err := time.ParseDuration(v); err == nil {
		return now.Add(-d), nil
	}

	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid since %q: want RFC3339 time or duration", v)
	}

	return t, nil
}

// UploadJournal 最近的上传记录.
//
//	@Summary	上传记录
//	@Tags		统计
//	@Produce	json
//	@Param		resource_type	query		string	false	"资源类型"
//	@Param		result			query		string	false	"stored 或 rejected"
//	@Param		since			query		string	false	"RFC3339 时间或时长，例如 24h"
//	@Param		limit			query		int		false	"返回条数，默认 50，最多 500"
//	@Success	200				{object}	map[string]any
//	@Failure	400				{object}	map[string]string
//	@Failure	503				{object}	map[string]string
//	@Router		/api/v1/stats/uploads [get]
func UploadJournal(c *gin.Context) {
	q := service.JournalQuery{
		ResourceType: c.Query("resource_type"),
		Result:       c.Query("result"),
	}

	if v := c.Query("since"); v != "" {
		since, err := parseSince(v, time.Now(), 0)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		q.Since = since
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}

		q.Limit = n
	}

	doJournal(c, "query upload journal failed", func(j *service.JournalService) (any, error) {
		rows, err := j.Recent(c.Request.Context(), q)
		if err != nil {
			return nil, err
		}

		return gin.H{"uploads": rows}, nil
	})
}

// UploadSummary 按资源类型与结果聚合上传次数和字节数.
//
//	@Summary	上传汇总
//	@Tags		统计
//	@Produce	json
//	@Param		since	query		string	false	"RFC3339 时间或时长，默认 24h"
//	@Success	200		{object}	map[string]any
//	@Failure	400		{object}	map[string]string
//	@Failure	503		{object}	map[string]string
//	@Router		/api/v1/stats/uploads/summary [get]
func UploadSummary(c *gin.Context) {
	since, err := parseSince(c.Query("since"), time.Now(), defaultSummaryWindow)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doJournal(c, "summarize upload journal failed", func(j *service.JournalService) (any, error) {
		sum, err := j.Summary(c.Request.Context(), since)
		if err != nil {
			return nil, err
		}

		return gin.H{"since": since, "summary": sum}, nil
	})
}
