package routes

import (
	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/handlers"
	"github.com/14kear/online_voting/polls-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterAuthRoutes(rg *gin.RouterGroup, handler *handlers.AuthHandler, authMiddleware gin.HandlerFunc) {
	{
		rg.POST("/register", handler.Register)
		rg.POST("/login", handler.Login)
		rg.POST("/refresh", handler.Refresh)
		rg.POST("/logout", handler.Logout)

		rg.GET("/search", authMiddleware, middleware.RequireRole(models.RoleAdmin), handler.SearchUsers)
	}
}

// RegisterPollRoutes expects rg to already run the auth middleware.
func RegisterPollRoutes(rg *gin.RouterGroup, handler *handlers.PollHandler) {
	{
		rg.GET("", handler.GetPolls)
		rg.POST("", handler.CreatePoll)

		rg.GET("/logs", middleware.RequireRole(models.RoleAdmin), handler.GetLogs)

		rg.GET("/:id", handler.GetPollByID)
		rg.PATCH("/:id", handler.UpdatePoll)
		rg.DELETE("/:id", handler.DeletePoll)
		rg.POST("/:id/vote", handler.Vote)
	}
}
