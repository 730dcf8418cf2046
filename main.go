package main

import (
	"log"

	"github.com/DinisvCosta/game-planner/config"
	"github.com/DinisvCosta/game-planner/internal/friendship"
	"github.com/DinisvCosta/game-planner/internal/game"
	"github.com/DinisvCosta/game-planner/internal/notification"
	"github.com/DinisvCosta/game-planner/internal/player"
	"github.com/DinisvCosta/game-planner/internal/user"
	"github.com/DinisvCosta/game-planner/routes"
)

// The at-most-one-PENDING rules live in the database so concurrent
// senders cannot both win. AutoMigrate cannot express partial indexes,
// hence the raw statements.
const (
	pendingFriendRequestIndex = `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_friend_requests_pending_pair
		ON friend_requests (LEAST(requester_id, requestee_id), GREATEST(requester_id, requestee_id))
		WHERE state = 'PENDING'`
	pendingParticipationIndex = `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_participation_requests_pending
		ON participation_requests (game_id, requester_id)
		WHERE state = 'PENDING'`
)

// @title Game Planner REST API
// @version 1.0
// @description Scheduling server for pickup games: friends, rosters and notifications.
// @host localhost:8080
// @BasePath /api
func main() {
	if err := config.Initialize(); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	cfg := config.GetConfig()

	err := config.DB.AutoMigrate(
		&user.User{}, &player.Player{},
		&game.Game{}, &game.ParticipationRequest{},
		&friendship.FriendRequest{},
		&notification.Notification{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
	if err := config.DB.Exec(pendingFriendRequestIndex).Error; err != nil {
		log.Fatalf("Failed to create pending friend request index: %v", err)
	}
	if err := config.DB.Exec(pendingParticipationIndex).Error; err != nil {
		log.Fatalf("Failed to create pending participation request index: %v", err)
	}
	log.Println("AutoMigrate successful")

	r := routes.SetupRoutes(config.DB, cfg)

	log.Printf("Starting server on port %s in %s mode\n", cfg.App.Port, cfg.App.Env)
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
