package routes

import (
	"finanzas_backend/controllers"
	"finanzas_backend/middleware"
	"finanzas_backend/scheduler"
	"finanzas_backend/services/alerts"
	"finanzas_backend/services/subscriptions"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, sched *scheduler.Scheduler, repo *alerts.Repository, trigger *alerts.SmartTrigger, subs *subscriptions.Service) {
	// Initialize controllers
	alertController := controllers.NewAlertController(repo, sched, trigger)
	subscriptionController := controllers.NewSubscriptionController(db, subs)

	// API v1 group, bearer-token protected
	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	{
		// Alert routes
		alertRoutes := api.Group("/alerts")
		{
			alertRoutes.GET("", alertController.GetAlerts)
			alertRoutes.POST("/evaluate/:user_id", alertController.EvaluateUser)
			alertRoutes.POST("/smart-trigger", alertController.SmartTrigger)
			alertRoutes.GET("/smart-trigger/stats", alertController.SmartTriggerStats)
		}

		// Scheduler control routes
		schedulerRoutes := api.Group("/scheduler")
		{
			schedulerRoutes.GET("/status", alertController.SchedulerStatus)

			adminOps := schedulerRoutes.Group("")
			adminOps.Use(middleware.AdminRoleMiddleware())
			{
				adminOps.POST("/start", alertController.StartScheduler)
				adminOps.POST("/stop", alertController.StopScheduler)
				adminOps.POST("/run-once", alertController.RunSchedulerOnce)
			}
		}

		// Subscription routes
		subscriptionRoutes := api.Group("/subscriptions")
		{
			subscriptionRoutes.GET("/plans", subscriptionController.GetPlans)
			subscriptionRoutes.GET("/user/:user_id", subscriptionController.GetUserSubscription)
			subscriptionRoutes.POST("/subscribe", subscriptionController.Subscribe)
			subscriptionRoutes.POST("/sweep", middleware.AdminRoleMiddleware(), subscriptionController.RunSweep)
		}
	}
}
