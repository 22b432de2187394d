package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coastwatch/coastal-hazard-alerts/internal/tide"
)

// TideHandler serves the tide monitoring endpoints.
type TideHandler struct {
	monitor *tide.Monitor
}

func NewTideHandler(monitor *tide.Monitor) *TideHandler {
	return &TideHandler{monitor: monitor}
}

func (h *TideHandler) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/tide")
	g.GET("/status", h.status)
	g.GET("/forecast", h.forecast)
	g.GET("/alerts", h.alerts)
	g.POST("/alerts/check", h.checkAlerts)
	g.GET("/risk", h.risk)
	g.GET("/calendar", h.calendar)
	g.GET("/weather", h.weather)
	g.GET("/statistics", h.statistics)
}

func (h *TideHandler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Status())
}

func (h *TideHandler) forecast(c *gin.Context) {
	days := 7
	if d := c.Query("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil {
			days = n
		}
	}
	c.JSON(http.StatusOK, h.monitor.Forecast(days))
}

func (h *TideHandler) alerts(c *gin.Context) {
	alerts := h.monitor.ActiveAlerts(c.Query("type"), c.Query("severity"))
	c.JSON(http.StatusOK, gin.H{
		"alerts":      alerts,
		"total_count": len(alerts),
		"timestamp":   time.Now(),
	})
}

func (h *TideHandler) checkAlerts(c *gin.Context) {
	created := h.monitor.CheckAlerts(c.Request.Context())
	if created == nil {
		created = []*tide.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{
		"new_alerts": created,
		"count":      len(created),
		"timestamp":  time.Now(),
	})
}

func (h *TideHandler) risk(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp":       time.Now(),
		"risk_assessment": h.monitor.Risk(),
	})
}

func (h *TideHandler) calendar(c *gin.Context) {
	status := h.monitor.Status()
	forecast := h.monitor.Forecast(7)
	c.JSON(http.StatusOK, gin.H{
		"current":          status["lunar_calendar"],
		"forecast_summary": forecast.LunarCalendar,
		"timestamp":        time.Now(),
	})
}

func (h *TideHandler) weather(c *gin.Context) {
	status := h.monitor.Status()
	forecast := h.monitor.Forecast(3)

	daily := make([]gin.H, 0, len(forecast.DailySummaries))
	for _, d := range forecast.DailySummaries {
		daily = append(daily, gin.H{"date": d.Date, "weather": d.Weather})
	}

	c.JSON(http.StatusOK, gin.H{
		"current":       status["weather"],
		"daily_weather": daily,
		"timestamp":     time.Now(),
	})
}

func (h *TideHandler) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Statistics())
}
