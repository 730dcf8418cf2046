package game

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/config"
	mw "github.com/DinisvCosta/game-planner/internal/middleware"
)

// GameRoutes sets up game and participation-request routes. The game
// detail endpoint takes an optional token so public games stay readable
// without one.
func GameRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config) {
	repo := NewGameRepository(db)
	controller := NewGameController(NewService(repo))

	jwtSecret := appConfig.JWT.AccessTokenSecret

	games := router.Group("/games")
	{
		games.GET("/:id", mw.OptionalAuthMiddleware(jwtSecret), controller.GetGame)

		authed := games.Group("")
		authed.Use(mw.AuthMiddleware(jwtSecret, db))
		{
			authed.GET("", controller.ListGames)
			authed.POST("", controller.CreateGame)
			authed.PATCH("/:id", controller.UpdateGame)
			authed.POST("/:id/members", controller.AddMember)
			authed.DELETE("/:id/members/:username", controller.RemoveMember)
			authed.GET("/:id/participation-requests", controller.ListPendingParticipation)
			authed.POST("/:id/participation-requests", controller.RequestParticipation)
		}
	}

	participation := router.Group("/participation-requests")
	participation.Use(mw.AuthMiddleware(jwtSecret, db))
	{
		participation.POST("/:id/resolve", controller.ResolveParticipation)
	}
}
