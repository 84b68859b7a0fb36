package middleware

import (
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/finder"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepEvery = time.Minute
)

// bucket 限流桶参数.
type bucket struct {
	limit rate.Limit
	burst int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet 按 key 持有限流器，闲置超过 limiterIdleTTL 的在访问时顺带清理.
type limiterSet struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterSet() *limiterSet {
	return &limiterSet{entries: map[string]*limiterEntry{}, now: time.Now}
}

func (s *limiterSet) allow(key string, b bucket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if now.Sub(s.lastSweep) >= limiterSweepEvery {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(s.entries, k)
			}
		}

		s.lastSweep = now
	}

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(b.limit, b.burst)}
		s.entries[key] = e
	}

	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

// RateLimitMiddleware 返回一个基于配置的限流中间件.
// 连接器命令从 command 查询参数识别：上传命令使用独立的桶，豁免命令直接放行.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	general := bucket{limit: rate.Limit(cfg.RPS), burst: cfg.Burst}

	upload := general
	if cfg.UploadRPS > 0 {
		upload = bucket{limit: rate.Limit(cfg.UploadRPS), burst: max(cfg.UploadBurst, 1)}
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))
	limiters := newLimiterSet()

	return func(c *gin.Context) {
		command := c.Query("command")
		if command != "" && slices.Contains(cfg.ExemptCommands, command) {
			c.Next()
			return
		}

		key, b := clientKey(c, keyMode), general

		if command == finder.CommandFileUpload || command == finder.CommandQuickUpload {
			key, b = "upload|"+key, upload
		}

		if !limiters.allow(key, b) {
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, finder.ErrUnknown,
				"rate limit exceeded, request too frequent, please try again later")

			return
		}

		c.Next()
	}
}

// clientKey 按限流维度计算 key，取不到时回退到客户端 IP.
func clientKey(c *gin.Context, keyMode string) string {
	var key string

	switch {
	case keyMode == "global" || keyMode == "":
		return "global"
	case strings.HasPrefix(keyMode, "header:"):
		key = c.GetHeader(strings.TrimPrefix(keyMode, "header:"))
	case keyMode == "role": // 需位于 RoleMiddleware 之后
		if role := GetRole(c); role != "" {
			key = "role:" + role
		}
	}

	if key == "" {
		key = clientIP(c)
	}

	if key == "" {
		key = "unknown"
	}

	return key
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}

	return c.Request.RemoteAddr
}
