package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lightspeedpay/payment-service/internal/delivery/http/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the public HTTP surface: merchant API, provider callbacks
// and the operational endpoints.
func NewRouter(env string, payment *handlers.PaymentHandler, webhook *handlers.WebhookHandler) *gin.Engine {
	if env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/payment/initiate", payment.Initiate)
		api.GET("/payments/:id", payment.GetTransaction)
		api.POST("/callback/:provider", webhook.Receive)
	}

	return router
}
