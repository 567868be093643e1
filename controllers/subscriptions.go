package controllers

import (
	"net/http"
	"time"

	"finanzas_backend/models"
	"finanzas_backend/services/subscriptions"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubscriptionController handles subscription-related requests
type SubscriptionController struct {
	db      *gorm.DB
	service *subscriptions.Service
}

// NewSubscriptionController creates a new subscription controller
func NewSubscriptionController(db *gorm.DB, service *subscriptions.Service) *SubscriptionController {
	return &SubscriptionController{db: db, service: service}
}

// GetPlans returns all active subscription plans
// GET /api/v1/subscriptions/plans
func (sc *SubscriptionController) GetPlans(c *gin.Context) {
	var plans []models.SubscriptionPlan

	if err := sc.db.Where("is_active = ?", true).Find(&plans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plans})
}

// GetUserSubscription returns the user's current (non-expired) subscription
// GET /api/v1/subscriptions/user/:user_id
func (sc *SubscriptionController) GetUserSubscription(c *gin.Context) {
	userID := c.Param("user_id")

	var subscription models.Subscription
	err := sc.db.Where("user_id = ? AND status IN ?", userID,
		[]string{models.SubscriptionActive, models.SubscriptionPendingRenewal}).
		Preload("Plan").Order("created_at DESC").First(&subscription).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subscription})
}

// Subscribe subscribes a user to a plan
// POST /api/v1/subscriptions/subscribe
func (sc *SubscriptionController) Subscribe(c *gin.Context) {
	var request struct {
		UserID    uint `json:"user_id" binding:"required"`
		PlanID    uint `json:"plan_id" binding:"required"`
		AutoRenew bool `json:"auto_renew"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var plan models.SubscriptionPlan
	if err := sc.db.First(&plan, request.PlanID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}

	// Check if user already has a live subscription
	var existing models.Subscription
	err := sc.db.Where("user_id = ? AND status IN ?", request.UserID,
		[]string{models.SubscriptionActive, models.SubscriptionPendingRenewal}).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already has an active subscription"})
		return
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 1, 0)
	if !plan.IsPaid {
		expiresAt = now.AddDate(1, 0, 0)
	}

	subscription := models.Subscription{
		UserID:    request.UserID,
		PlanID:    plan.ID,
		Status:    models.SubscriptionActive,
		ExpiresAt: expiresAt,
		AutoRenew: request.AutoRenew,
	}

	if err := sc.db.Create(&subscription).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subscription"})
		return
	}

	if err := sc.db.Model(&models.User{}).Where("id = ?", request.UserID).
		Update("plan_id", plan.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user plan"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": subscription})
}

// RunSweep triggers the subscription lifecycle sweep manually (admin only)
// POST /api/v1/subscriptions/sweep
func (sc *SubscriptionController) RunSweep(c *gin.Context) {
	report, err := sc.service.RunDailySweep(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}
