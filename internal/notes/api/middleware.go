package api

import (
	"net/http"
	"time"

	contextx "github.com/blueplan/notes-go/internal/notes/context"
	logx "github.com/blueplan/notes-go/internal/notes/log"
	"github.com/gin-gonic/gin"
)

// CORS 放行所有来源、方法和请求头，仅适用于本地开发
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.Request.Header.Get("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}

		methods := c.Request.Header.Get("Access-Control-Request-Method")
		if methods == "" {
			methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD"
		}
		c.Header("Access-Control-Allow-Methods", methods)

		headers := c.Request.Header.Get("Access-Control-Request-Headers")
		if headers == "" {
			headers = "*"
		}
		c.Header("Access-Control-Allow-Headers", headers)
		c.Header("Access-Control-Expose-Headers", contextx.RequestIDHeader)
		c.Header("Access-Control-Max-Age", "86400")

		// 处理预检请求
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestID 注入请求ID，优先沿用客户端传入的 X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(contextx.RequestIDHeader)
		if rid == "" {
			rid = contextx.NewRequestID()
		}
		c.Request = c.Request.WithContext(contextx.WithRequestID(c.Request.Context(), rid))
		c.Header(contextx.RequestIDHeader, rid)
		c.Next()
	}
}

// LogRequest 请求日志中间件
func LogRequest(logger *logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logx.Field{
			logx.KV("method", c.Request.Method),
			logx.KV("path", c.Request.URL.Path),
			logx.KV("status", c.Writer.Status()),
			logx.KV("latency", time.Since(start)),
			logx.KV("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logx.KV("error", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error(c.Request.Context(), "http.request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn(c.Request.Context(), "http.request", fields...)
		default:
			logger.Info(c.Request.Context(), "http.request", fields...)
		}
	}
}

// Recovery 恢复中间件
func Recovery(logger *logx.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error(c.Request.Context(), "请求处理panic",
			logx.KV("error", recovered),
			logx.KV("method", c.Request.Method),
			logx.KV("path", c.Request.URL.Path),
			logx.KV("client_ip", c.ClientIP()))

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "请求处理失败",
		})
	})
}

// LimitRequestSize 限制请求体大小
func LimitRequestSize(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			abortWithError(c, http.StatusRequestEntityTooLarge, "request_too_large", "请求大小超出限制")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}
