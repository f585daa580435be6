package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/HSL-KM/class-registration-service/internal/config"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/services"
	"github.com/HSL-KM/class-registration-service/internal/utils"
)

type HandlerManager struct {
	classHandler      *ClassHandler
	userHandler       *UserHandler
	requestHandler    *RequestHandler
	evaluationHandler *EvaluationHandler
	adminHandler      *AdminHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		classHandler:      NewClassHandler(serviceManager.Class(), serviceManager.Registration(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		requestHandler:    NewRequestHandler(serviceManager.ClassRequest(), logger),
		evaluationHandler: NewEvaluationHandler(serviceManager.Evaluation(), logger),
		adminHandler:      NewAdminHandler(serviceManager.User(), serviceManager.Activity(), logger),
		authMiddleware:    authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Class catalog and registration
		classes := v1.Group("/classes")
		{
			classes.GET("", hm.classHandler.ListClasses)
			classes.GET("/promoted", hm.classHandler.ListPromoted)
			classes.GET("/my-closed", hm.classHandler.MyClosedClasses)
			classes.GET("/:class_id", hm.classHandler.GetClass)

			classes.POST("/:class_id/register", hm.classHandler.Register)
			classes.POST("/:class_id/cancel", hm.classHandler.Cancel)

			// Class management - admins only
			classes.POST("", hm.authMiddleware.RequireAdmin(), hm.classHandler.CreateClass)
			classes.PUT("/:class_id", hm.authMiddleware.RequireAdmin(), hm.classHandler.UpdateClass)
			classes.DELETE("/:class_id", hm.authMiddleware.RequireAdmin(), hm.classHandler.DeleteClass)
			classes.POST("/:class_id/close", hm.authMiddleware.RequireAdmin(), hm.classHandler.CloseClass)
			classes.PUT("/:class_id/promote", hm.authMiddleware.RequireAdmin(), hm.classHandler.SetPromoted)

			classes.GET("/:class_id/registrants", hm.authMiddleware.RequireAdmin(), hm.classHandler.Registrants)
			classes.GET("/:class_id/registrants/export", hm.authMiddleware.RequireAdmin(), hm.classHandler.ExportRegistrants)
			classes.GET("/:class_id/evaluations", hm.authMiddleware.RequireAdmin(), hm.evaluationHandler.Summary)
		}

		// Users and profiles
		users := v1.Group("/users")
		{
			users.POST("/check-or-create", hm.userHandler.CheckOrCreate)
			users.GET("/me", hm.userHandler.Me)
			users.PUT("/me/profile", hm.userHandler.UpdateProfile)

			users.GET("", hm.authMiddleware.RequireAdmin(), hm.userHandler.ListUsers)
			users.GET("/:id", hm.authMiddleware.RequireAdmin(), hm.userHandler.GetUser)
			users.PUT("/:id/roles", hm.authMiddleware.RequireAdmin(), hm.userHandler.UpdateRoles)
			users.PUT("/:id/status", hm.authMiddleware.RequireAdmin(), hm.userHandler.UpdateStatus)
			users.DELETE("/:id", hm.authMiddleware.RequireAdmin(), hm.userHandler.DeleteUser)
		}

		// Class-opening requests
		requests := v1.Group("/class-requests")
		{
			requests.POST("", hm.requestHandler.Submit)
			requests.GET("", hm.requestHandler.List)
			requests.PUT("/:id", hm.requestHandler.Update)
			requests.DELETE("/:id", hm.requestHandler.Delete)
			requests.POST("/:id/action", hm.authMiddleware.RequireAdmin(), hm.requestHandler.Resolve)
		}

		// Evaluations
		evaluations := v1.Group("/evaluations")
		{
			evaluations.POST("", hm.evaluationHandler.Submit)
			evaluations.GET("/mine", hm.evaluationHandler.MyEvaluatedClasses)
		}

		// Admin management - level 3 can manage other admins
		admins := v1.Group("/admins")
		admins.Use(hm.authMiddleware.RequireAdmin())
		{
			admins.GET("", hm.adminHandler.ListAdmins)
			admins.POST("", hm.authMiddleware.RequireAdminLevel(3), hm.adminHandler.AppointAdmin)
			admins.PUT("/:id/level", hm.authMiddleware.RequireAdminLevel(3), hm.adminHandler.ChangeAdminLevel)
			admins.DELETE("/:id", hm.authMiddleware.RequireAdminLevel(3), hm.adminHandler.RevokeAdmin)
		}

		// Audit trail - admins only
		activity := v1.Group("/activity-logs")
		activity.Use(hm.authMiddleware.RequireAdmin())
		{
			activity.GET("", hm.adminHandler.ListActivityLogs)
			activity.GET("/export", hm.adminHandler.ExportActivityLogs)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "class-registration-service",
		})
	})
}
