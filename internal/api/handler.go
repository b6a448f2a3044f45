package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"stockout-service/internal/dataset"
	"stockout-service/internal/lifecycle"
	"stockout-service/internal/monitor"
	"stockout-service/internal/pipeline"
	"stockout-service/internal/registry"
	"stockout-service/internal/service"
	"stockout-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	scoring    *service.ScoringService
	pipeline   *pipeline.Pipeline
	evaluator  *monitor.Evaluator
	controller *lifecycle.Controller
}

// NewHandler creates a new HTTP handler
func NewHandler(
	scoring *service.ScoringService,
	p *pipeline.Pipeline,
	evaluator *monitor.Evaluator,
	controller *lifecycle.Controller,
) *Handler {
	return &Handler{
		scoring:    scoring,
		pipeline:   p,
		evaluator:  evaluator,
		controller: controller,
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
		v1.POST("/predict", h.predict)
		v1.POST("/pipeline/run", h.runPipeline)
		v1.POST("/drift/check", h.checkDrift)
		v1.GET("/models/production", h.productionModel)
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

// predict scores a single inventory row
func (h *Handler) predict(c *gin.Context) {
	var req service.PredictionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.scoring.Predict(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, registry.ErrNoModelAvailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "No production model available",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to score request",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

type runPipelineRequest struct {
	HorizonDays int `json:"horizon_days"`
}

// runPipeline triggers a full training run
func (h *Handler) runPipeline(c *gin.Context) {
	var req runPipelineRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
	}

	result, err := h.pipeline.Run(c.Request.Context(), req.HorizonDays)
	if err != nil {
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    "Schema validation failed",
				"problems": schemaErr.Problems,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Pipeline run failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// checkDrift runs one continued-evaluation pass
func (h *Handler) checkDrift(c *gin.Context) {
	report, err := h.evaluator.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Drift check failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// productionModel returns the current production version
func (h *Handler) productionModel(c *gin.Context) {
	mv, err := h.controller.Production(c.Request.Context())
	if err != nil {
		if errors.Is(err, registry.ErrNoModelAvailable) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No production model available",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to query registry",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, mv)
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
