package main

import (
	"github.com/gin-gonic/gin"
	"payorch.backend/internal/interfaces/http/handlers"
	"payorch.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	paymentHandler           *handlers.PaymentHandler
	opsHandler               *handlers.OpsHandler
	clearingCallbackHandler  *handlers.ClearingCallbackHandler
	operatorAuthHandler      *handlers.OperatorAuthHandler
	adapterCredentialHandler *handlers.AdapterCredentialHandler
	tenantContextMiddleware  gin.HandlerFunc
	authMiddleware           gin.HandlerFunc
}

// registerAPIV1Routes wires the payment-orchestration HTTP surface: payer
// intake (pain.001 accept/status/cancel), inbound clearing-rail callbacks,
// and the operator-gated ops/admin surface (dead-letter inspection,
// adapter credential issuance, operator account management).
func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Operator auth (public login, admin-gated account management)
		opsAuth := v1.Group("/ops/auth")
		{
			opsAuth.POST("/login", d.operatorAuthHandler.Login)
			opsAuth.GET("/me", d.authMiddleware, d.operatorAuthHandler.Me)
			opsAuth.POST("/operators", d.authMiddleware, middleware.RequireAdmin(), d.operatorAuthHandler.CreateOperator)
		}

		// Payment intake and lifecycle (tenant-scoped)
		payments := v1.Group("/payments")
		payments.Use(d.tenantContextMiddleware)
		{
			payments.POST("", middleware.IdempotencyMiddleware(), d.paymentHandler.CreatePayment)
			payments.GET("/:id", d.paymentHandler.GetPayment)
			payments.POST("/:id/cancel", d.paymentHandler.CancelPayment)
		}

		// ISO 20022 pain.001 intake (tenant-scoped)
		iso := v1.Group("/iso20022")
		iso.Use(d.tenantContextMiddleware)
		{
			iso.POST("/pain001", middleware.IdempotencyMiddleware(), d.paymentHandler.SubmitPain001)
		}

		// Inbound clearing-rail notifications (tenant-scoped, per-rail path
		// kept for clarity even though the handler itself is rail-agnostic)
		clearing := v1.Group("/clearing")
		clearing.Use(d.tenantContextMiddleware)
		{
			clearing.POST("/:rail/callback", d.clearingCallbackHandler.HandleCallback)
		}

		// Ops/admin surface: saga dead-letter inspection, adapter credential
		// issuance. Gated by operator bearer auth, never reachable by a
		// tenant's own API credentials.
		ops := v1.Group("/ops")
		ops.Use(d.tenantContextMiddleware, d.authMiddleware)
		{
			ops.GET("/sagas/dead-letter", d.opsHandler.ListDeadLetteredSagas)

			ops.POST("/adapter-credentials", middleware.RequireAdmin(), d.adapterCredentialHandler.Issue)
			ops.GET("/adapter-credentials", d.adapterCredentialHandler.List)
			ops.POST("/adapter-credentials/:id/revoke", middleware.RequireAdmin(), d.adapterCredentialHandler.Revoke)
		}
	}
}
