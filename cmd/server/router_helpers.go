package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"payorch.backend/pkg/metrics"
)

// applyCORSMiddleware allows any origin to call the API, echoing it back
// rather than using a wildcard so credentialed requests still work.
func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Tenant-Id, X-Business-Unit-Id, X-Customer-Id, X-Idempotency-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

// registerHealthRoute serves a liveness probe for orchestrators/load balancers.
func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "payorch-backend",
			"version": "1.0.0",
		})
	})
}

// registerMetricsRoute exposes the Prometheus scrape endpoint described in
// SPEC_FULL.md's observability section.
func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", metrics.Handler())
}
