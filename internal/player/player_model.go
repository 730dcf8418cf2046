package player

import (
	"time"

	"github.com/DinisvCosta/game-planner/internal/user"
)

// Player associates an identity with its game-domain state: the friend
// set and the games-played counter. Exactly one Player exists per User.
// Friendship rows in the join table are always written in both
// directions, so "currently friends" is symmetric by construction.
type Player struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User        user.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	GamesPlayed int       `gorm:"not null;default:0" json:"games_played"`
	CreatedAt   time.Time `json:"created_at"`

	Friends []*Player `gorm:"many2many:player_friends;joinForeignKey:PlayerID;joinReferences:FriendID" json:"-"`
}

func (p *Player) Username() string {
	return p.User.Username
}

// Summary is the public listing shape for a player.
type Summary struct {
	Username    string `json:"username"`
	GamesPlayed int    `json:"games_played"`
}

func (p *Player) Summary() Summary {
	return Summary{Username: p.User.Username, GamesPlayed: p.GamesPlayed}
}
