package controllers

import (
	"net/http"
	"strconv"

	"finanzas_backend/middleware"
	"finanzas_backend/scheduler"
	"finanzas_backend/services/alerts"

	"github.com/gin-gonic/gin"
)

// AlertController exposes the alert engine, scheduler and smart trigger
// to the surrounding application
type AlertController struct {
	repo      *alerts.Repository
	scheduler *scheduler.Scheduler
	trigger   *alerts.SmartTrigger
}

// NewAlertController creates a new alert controller
func NewAlertController(repo *alerts.Repository, sched *scheduler.Scheduler, trigger *alerts.SmartTrigger) *AlertController {
	return &AlertController{repo: repo, scheduler: sched, trigger: trigger}
}

// GetAlerts returns the authenticated user's alerts, newest first.
// Admins may read another user's alerts via ?user_id=123.
// GET /api/v1/alerts
func (ac *AlertController) GetAlerts(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if raw := c.Query("user_id"); raw != "" {
		if role, _ := c.Get("user_role"); role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin privileges required to read other users' alerts"})
			return
		}
		other, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
			return
		}
		userID = uint(other)
	}

	alertList, err := ac.repo.AlertsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": alertList})
}

// EvaluateUser runs a manual evaluation pass for one user
// POST /api/v1/alerts/evaluate/:user_id
func (ac *AlertController) EvaluateUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	summary, err := ac.scheduler.RunEvaluationForUser(uint(userID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// SmartTrigger attempts an opportunistic evaluation pass. Called from
// high-traffic pages; a rate-limited rejection is a normal response,
// not an error.
// POST /api/v1/alerts/smart-trigger
func (ac *AlertController) SmartTrigger(c *gin.Context) {
	result := ac.trigger.TryExecuteAlerts()
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// SmartTriggerStats returns the trigger's gate state
// GET /api/v1/alerts/smart-trigger/stats
func (ac *AlertController) SmartTriggerStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": ac.trigger.GetStats()})
}

// StartScheduler starts the background scheduler (admin only)
// POST /api/v1/scheduler/start
func (ac *AlertController) StartScheduler(c *gin.Context) {
	var request struct {
		IntervalMinutes int `json:"interval_minutes"`
	}
	if err := c.ShouldBindJSON(&request); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ac.scheduler.Start(request.IntervalMinutes)
	c.JSON(http.StatusOK, gin.H{"data": ac.scheduler.GetStatus()})
}

// StopScheduler stops the background scheduler (admin only)
// POST /api/v1/scheduler/stop
func (ac *AlertController) StopScheduler(c *gin.Context) {
	ac.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"data": ac.scheduler.GetStatus()})
}

// RunSchedulerOnce runs a one-shot pass over all users (admin only)
// POST /api/v1/scheduler/run-once
func (ac *AlertController) RunSchedulerOnce(c *gin.Context) {
	go ac.scheduler.RunOnce()
	c.JSON(http.StatusAccepted, gin.H{"message": "One-shot evaluation pass started"})
}

// SchedulerStatus reports the scheduler's state
// GET /api/v1/scheduler/status
func (ac *AlertController) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": ac.scheduler.GetStatus()})
}
