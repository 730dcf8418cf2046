package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/config"
	"github.com/DinisvCosta/game-planner/internal/auth"
	"github.com/DinisvCosta/game-planner/internal/friendship"
	"github.com/DinisvCosta/game-planner/internal/game"
	"github.com/DinisvCosta/game-planner/internal/notification"
	"github.com/DinisvCosta/game-planner/internal/profile"
)

func SetupRoutes(db *gorm.DB, appConfig *config.Config) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default()) // allows all origins, GET/POST/PUT

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := r.Group("/api")
	auth.RegisterAuthRoutes(api, db, appConfig)
	profile.ProfileRoutes(api, db, appConfig)
	friendship.FriendshipRoutes(api, db, appConfig)
	game.GameRoutes(api, db, appConfig)
	notification.NotificationRoutes(api, db, appConfig)

	return r
}
