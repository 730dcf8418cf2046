package notification

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/config"
	mw "github.com/DinisvCosta/game-planner/internal/middleware"
)

// NotificationRoutes sets up notification routes.
func NotificationRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config) {
	controller := NewNotificationController(NewBroker(NewNotificationRepository(db)))

	group := router.Group("/notifications")
	group.Use(mw.AuthMiddleware(appConfig.JWT.AccessTokenSecret, db))
	{
		group.GET("", controller.ListUnread)
		group.POST("/:id/read", controller.MarkRead)
		group.POST("/read-all", controller.MarkAllRead)
	}
}
