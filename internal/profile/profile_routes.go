package profile

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/config"
	"github.com/DinisvCosta/game-planner/internal/friendship"
	"github.com/DinisvCosta/game-planner/internal/game"
	mw "github.com/DinisvCosta/game-planner/internal/middleware"
	"github.com/DinisvCosta/game-planner/internal/player"
)

// ProfileRoutes sets up the player listing and profile routes. Profiles
// are readable without a token; the listing is not.
func ProfileRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config) {
	players := player.NewPlayerRepository(db)
	friendships := friendship.NewService(friendship.NewFriendshipRepository(db))
	games := game.NewService(game.NewGameRepository(db))
	controller := NewProfileController(players, friendships, games)

	jwtSecret := appConfig.JWT.AccessTokenSecret

	group := router.Group("/players")
	{
		group.GET("", mw.AuthMiddleware(jwtSecret, db), controller.ListPlayers)
		group.GET("/:username", mw.OptionalAuthMiddleware(jwtSecret), controller.GetProfile)
	}
}
