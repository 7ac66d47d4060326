package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applogger "pharmacy-ops/backend/pkg/logger"
	"pharmacy-ops/backend/pkg/metrics"
)

// Logger 请求日志中间件（基于 Zap 结构化日志），同时上报请求指标
// 携带 request_id 的请求级 logger 写入请求 context，下游经 logger.FromContext 取用
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		reqLogger := logger.With(zap.String("request_id", c.GetString(requestIDKey)))
		c.Request = c.Request.WithContext(applogger.WithContext(c.Request.Context(), reqLogger))

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		// 路由模板而非原始路径，避免指标基数爆炸
		metrics.ObserveHTTP(c.FullPath(), c.Request.Method, statusCode, latency)

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if uid := c.GetString("user_id"); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		if statusCode >= 500 {
			logger.Error("请求处理失败", fields...)
		} else if statusCode >= 400 {
			logger.Warn("客户端错误", fields...)
		} else {
			logger.Info("请求完成", fields...)
		}
	}
}
