package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/njchilds90/symbind"
	"github.com/njchilds90/symbind/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// newRouter wires the tool endpoints:
//
//	POST /tool    execute a tool call
//	GET  /schema  tool schema for agent registration
//	GET  /health  liveness check
//	GET  /metrics Prometheus metrics
func newRouter(h *symbind.ToolHandler, logger *slog.Logger, maxBodyBytes int64) *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(logger), gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error("panic in handler", "path", c.Request.URL.Path, "panic", rec, "request_id", c.GetString("request_id"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))

	r.POST("/tool", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

		dec := json.NewDecoder(c.Request.Body)
		dec.DisallowUnknownFields()

		var req symbind.ToolRequest
		if err := dec.Decode(&req); err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		if dec.More() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: trailing data"})
			return
		}

		c.JSON(http.StatusOK, h.Handle(c.Request.Context(), req))
	})

	r.GET("/schema", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(symbind.MCPToolSpec()))
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// requestID propagates or creates the request id header.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		metrics.ObserveHTTP(c.FullPath(), status)
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"elapsed", time.Since(start),
			"request_id", c.GetString("request_id"))
	}
}
