package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pos-order-api/internal/service"
	"pos-order-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService *service.OrderService
	catalog      *service.CatalogService
	diagnostics  *service.Diagnostics
	ready        func() error
}

// NewHandler creates a new HTTP handler. ready may be nil.
func NewHandler(
	orderService *service.OrderService,
	catalog *service.CatalogService,
	diagnostics *service.Diagnostics,
	ready func() error,
) *Handler {
	return &Handler{
		orderService: orderService,
		catalog:      catalog,
		diagnostics:  diagnostics,
		ready:        ready,
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

	pos := router.Group("/api/pos")
	{
		pos.POST("/order", h.createOrder)
		pos.GET("/get_product_by_name", h.getProductByName)
		pos.GET("/get_or_create_product", h.getOrCreateProduct)
		pos.POST("/get_or_create_product", h.getOrCreateProduct)
		pos.GET("/debug/users", h.debugUsers)
		pos.POST("/test-notification", h.testNotification)
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
	if h.ready != nil {
		if err := h.ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
				"time":   time.Now().Unix(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// fail writes the error body every endpoint shares
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrProductUnresolved):
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type productResponse struct {
	Success bool `json:"success"`
	*service.ProductInfo
}

// getProductByName looks up a product without creating it
func (h *Handler) getProductByName(c *gin.Context) {
	info, err := h.catalog.GetProductByName(
		c.Request.Context(),
		c.Query("product_name"),
		baseURL(c),
		c.DefaultQuery("image_size", service.DefaultImageSize),
	)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, productResponse{Success: true, ProductInfo: info})
}

type getOrCreateProductRequest struct {
	ProductName string          `json:"product_name" form:"product_name"`
	PriceUnit   decimal.Decimal `json:"price_unit"`
	ImageSize   string          `json:"image_size" form:"image_size"`
}

// getOrCreateProduct accepts a JSON body on POST and query parameters on GET
func (h *Handler) getOrCreateProduct(c *gin.Context) {
	var req getOrCreateProductRequest

	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   fmt.Sprintf("invalid request body: %v", err),
			})
			return
		}
	} else {
		req.ProductName = c.Query("product_name")
		req.ImageSize = c.Query("image_size")
		// an unparsable price counts as zero
		if price, err := decimal.NewFromString(c.Query("price_unit")); err == nil {
			req.PriceUnit = price
		}
	}
	if req.ImageSize == "" {
		req.ImageSize = service.DefaultImageSize
	}

	info, err := h.catalog.GetOrCreateProduct(c.Request.Context(), req.ProductName, req.PriceUnit, baseURL(c), req.ImageSize)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, productResponse{Success: true, ProductInfo: info})
}

// debugUsers lists internal users and notification group memberships
func (h *Handler) debugUsers(c *gin.Context) {
	report, err := h.diagnostics.Users(c.Request.Context())
	if err != nil {
		util.GetLogger().Error("Failed to build users report", zap.Error(err))
		fail(c, fmt.Errorf("error getting debug info: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"total_internal_users": report.TotalInternalUsers,
		"users":                report.Users,
		"groups_info":          report.GroupsInfo,
		"timestamp":            report.Timestamp,
	})
}

// testNotification broadcasts a synthetic order to every internal user
func (h *Handler) testNotification(c *gin.Context) {
	count, err := h.diagnostics.SendTestNotification(c.Request.Context())
	if err != nil {
		fail(c, fmt.Errorf("error sending test notification: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"notifications_sent": count,
		"message":            fmt.Sprintf("Test notification sent to %d users", count),
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}

// baseURL is the scheme and host the request was addressed to
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host
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
