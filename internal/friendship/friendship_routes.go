package friendship

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/config"
	mw "github.com/DinisvCosta/game-planner/internal/middleware"
)

// FriendshipRoutes sets up friend and friend-request routes.
func FriendshipRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config) {
	repo := NewFriendshipRepository(db)
	controller := NewFriendshipController(NewService(repo))

	jwtSecret := appConfig.JWT.AccessTokenSecret

	friends := router.Group("/friends")
	friends.Use(mw.AuthMiddleware(jwtSecret, db))
	{
		friends.GET("", controller.ListFriends)
		friends.DELETE("/:username", controller.RemoveFriend)
	}

	requests := router.Group("/friend-requests")
	requests.Use(mw.AuthMiddleware(jwtSecret, db))
	{
		requests.GET("", controller.ListPending)
		requests.POST("", controller.SendRequest)
		requests.POST("/:id/resolve", controller.ResolveRequest)
	}
}
