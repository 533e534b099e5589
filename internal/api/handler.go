package api

import (
	"net/http"
	"strconv"
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/service"
	"commerce-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
}

// NewHandler creates a new HTTP handler
func NewHandler(orderService *service.OrderService, paymentService *service.PaymentService) *Handler {
	return &Handler{
		orderService:   orderService,
		paymentService: paymentService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/orders/:id/payment", h.getPayment)
		v1.POST("/payments", h.createPayment)
		v1.POST("/payments/:id/authorize", h.authorizePayment)
		v1.POST("/webhooks/payments", h.paymentWebhook)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, items, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// getPayment handles get latest payment for an order
func (h *Handler) getPayment(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPaymentByOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

type createPaymentRequest struct {
	OrderID int64 `json:"order_id" binding:"required"`
}

// createPayment handles payment creation for an order
func (h *Handler) createPayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	resp, err := h.paymentService.CreatePayment(c.Request.Context(), req.OrderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

type authorizePaymentRequest struct {
	IdempotencyKey    string `json:"idempotency_key"`
	Result            string `json:"result" binding:"required,oneof=AUTHORIZED FAILED"`
	ProviderPaymentID string `json:"provider_payment_id"`
}

// authorizePayment handles the client-driven authorize call
func (h *Handler) authorizePayment(c *gin.Context) {
	paymentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req authorizePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}
	if req.IdempotencyKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": "idempotency key is required",
		})
		return
	}

	result, err := h.paymentService.AuthorizePayment(c.Request.Context(), &service.AuthorizeCommand{
		PaymentID:         paymentID,
		IdempotencyKey:    req.IdempotencyKey,
		Result:            req.Result,
		ProviderPaymentID: req.ProviderPaymentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type paymentWebhookRequest struct {
	Provider          string `json:"provider" binding:"required"`
	ProviderEventID   string `json:"provider_event_id" binding:"required"`
	ProviderPaymentID string `json:"provider_payment_id"`
	PaymentID         int64  `json:"payment_id" binding:"required"`
	Result            string `json:"result" binding:"required,oneof=AUTHORIZED FAILED"`
}

// paymentWebhook handles inbound provider callbacks
func (h *Handler) paymentWebhook(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	result, err := h.paymentService.ProcessWebhook(c.Request.Context(), &service.WebhookCommand{
		Provider:          req.Provider,
		ProviderEventID:   req.ProviderEventID,
		ProviderPaymentID: req.ProviderPaymentID,
		PaymentID:         req.PaymentID,
		Result:            req.Result,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": "invalid " + name,
		})
		return 0, false
	}
	return id, true
}

// writeError maps a domain error code to an HTTP status. Unknown errors are
// reported as 500 without leaking internals.
func writeError(c *gin.Context, err error) {
	de := models.AsDomainError(err)
	if de == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "internal server error",
		})
		return
	}

	c.JSON(statusForCode(de.Code), gin.H{
		"code":    string(de.Code),
		"message": de.Message,
	})
}

func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.CodeProductNotFound,
		models.CodeInventoryNotFound,
		models.CodeOrderNotFound,
		models.CodePaymentNotFound:
		return http.StatusNotFound
	case models.CodeOutOfStock,
		models.CodeOrderStateInvalid,
		models.CodeIdempotencyKeyConflict,
		models.CodeDataInconsistency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
