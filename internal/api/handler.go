package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coastwatch/coastal-hazard-alerts/internal/alerting"
	"github.com/coastwatch/coastal-hazard-alerts/internal/classifier"
	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
	"github.com/coastwatch/coastal-hazard-alerts/internal/report"
	"github.com/coastwatch/coastal-hazard-alerts/internal/repository"
	"github.com/coastwatch/coastal-hazard-alerts/internal/stream"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	svc         *report.Service
	repo        repository.AlertRepository
	registry    *classifier.Registry
	dispatcher  *alerting.Dispatcher
	broadcaster *stream.Broadcaster
}

func NewHandler(svc *report.Service, repo repository.AlertRepository, registry *classifier.Registry, dispatcher *alerting.Dispatcher, broadcaster *stream.Broadcaster) *Handler {
	return &Handler{
		svc:         svc,
		repo:        repo,
		registry:    registry,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/upload", h.upload)
	r.GET("/alerts", h.getAlerts)
	r.GET("/alerts/geojson", h.getAlertsGeoJSON)
	r.GET("/alerts/stream", h.streamAlerts)
	r.GET("/health", h.health)
	r.POST("/predict", h.predict)
	r.GET("/models", h.getModels)
	r.GET("/features/:hazard_type", h.getFeatures)
	r.GET("/channels", h.getChannels)
	r.GET("/status", h.getStatus)
	r.POST("/status/reset", h.resetStatus)
}

func (h *Handler) upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image provided"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image too large"})
		return
	}

	lat, latErr := strconv.ParseFloat(c.PostForm("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "GPS coordinates required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}
	defer f.Close()
	imageData, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}

	alert, err := h.svc.ProcessUpload(c.Request.Context(), report.Upload{
		ImageData:   imageData,
		Latitude:    lat,
		Longitude:   lon,
		Description: c.PostForm("description"),
		PhoneNumber: c.PostForm("phone_number"),
	})
	if err != nil {
		var verr *report.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Hazard analysis complete. Alert level: " + alert.Level.String(),
		"hazard_details": gin.H{
			"type":        alert.HazardType,
			"alert_level": alert.Level,
			"location":    alert.Location.Name,
			"confidence":  alert.Confidence,
		},
		"alert": gin.H{
			"id":        alert.ID,
			"timestamp": alert.Timestamp,
		},
	})
}

func (h *Handler) getAlerts(c *gin.Context) {
	alerts, err := h.repo.ListAlerts(c.Request.Context(), alertFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *Handler) getAlertsGeoJSON(c *gin.Context) {
	alerts, err := h.repo.ListAlerts(c.Request.Context(), alertFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	fc := toGeoJSON(alerts)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func alertFilter(c *gin.Context) repository.Filter {
	filter := repository.Filter{
		Limit: 20, // Default to 20 alerts if limit param not supplied
	}

	if t := c.Query("type"); t != "" {
		if hazard, ok := models.ParseHazardType(t); ok {
			filter.HazardType = &hazard
		}
	}
	if lv := c.Query("level"); lv != "" {
		if level, err := models.ParseAlertLevel(lv); err == nil {
			filter.Level = &level
		}
	}
	if mlv := c.Query("min_level"); mlv != "" {
		if level, err := models.ParseAlertLevel(mlv); err == nil {
			filter.MinLevel = &level
		}
	}
	if s := c.Query("since"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.Since = &t
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}

	return filter
}

func (h *Handler) streamAlerts(c *gin.Context) {
	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case a, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("alert", a)
			return true
		}
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"models_loaded": h.registry.Loaded(),
	})
}

type predictRequest struct {
	HazardType string             `json:"hazard_type"`
	Features   map[string]float64 `json:"features"`
}

func (h *Handler) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: features must be numeric"})
		return
	}
	if req.HazardType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hazard_type is required"})
		return
	}

	hazard, ok := models.ParseHazardType(req.HazardType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            "unknown hazard type: " + req.HazardType,
			"available_models": h.registry.Loaded(),
		})
		return
	}

	prediction, err := h.registry.Predict(hazard, req.Features)
	if err != nil {
		var missing *classifier.MissingFeaturesError
		if errors.As(err, &missing) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    missing.Error(),
				"required": missing.Required,
				"received": featureKeys(req.Features),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	m, _ := h.registry.Model(hazard)
	c.JSON(http.StatusOK, gin.H{
		"hazard_type":   prediction.HazardType,
		"prediction":    prediction.Label,
		"probability":   prediction.Probability,
		"features_used": prediction.FeaturesUsed,
		"timestamp":     time.Now(),
		"model_info": gin.H{
			"type":           string(m.Kind),
			"features_count": len(m.Features),
		},
	})
}

func (h *Handler) getModels(c *gin.Context) {
	info := gin.H{}
	for _, hazard := range models.Hazards() {
		m, loaded := h.registry.Model(hazard)
		entry := gin.H{"loaded": loaded}
		if loaded {
			entry["type"] = string(m.Kind)
			entry["features"] = m.Features
		}
		info[string(hazard)] = entry
	}
	c.JSON(http.StatusOK, gin.H{
		"models":       info,
		"total_loaded": len(h.registry.Loaded()),
	})
}

func (h *Handler) getFeatures(c *gin.Context) {
	hazard, ok := models.ParseHazardType(c.Param("hazard_type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown hazard type: " + c.Param("hazard_type")})
		return
	}

	m, loaded := h.registry.Model(hazard)
	if !loaded {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model not loaded for " + string(hazard)})
		return
	}

	example := gin.H{}
	for _, f := range m.Features {
		example[f] = 0.0
	}
	c.JSON(http.StatusOK, gin.H{
		"hazard_type":       hazard,
		"required_features": m.Features,
		"example_request": gin.H{
			"hazard_type": hazard,
			"features":    example,
		},
	})
}

func (h *Handler) getChannels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.dispatcher.Status()})
}

func (h *Handler) getStatus(c *gin.Context) {
	count, err := h.repo.CountAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count alerts"})
		return
	}

	status := h.svc.SystemStatus()
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"description":  status.Description(),
		"action":       status.Action(),
		"alerts_count": count,
	})
}

func (h *Handler) resetStatus(c *gin.Context) {
	h.svc.ResetSystemStatus()
	c.JSON(http.StatusOK, gin.H{
		"status":      models.AlertLevelGreen,
		"description": models.AlertLevelGreen.Description(),
	})
}

func featureKeys(features map[string]float64) []string {
	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	return keys
}
