package game

import (
	"time"

	"github.com/DinisvCosta/game-planner/internal/player"
	"github.com/DinisvCosta/game-planner/internal/request"
	"github.com/DinisvCosta/game-planner/internal/user"
)

// Game is a scheduled group game. The admin is the identity that created
// it and is immutable afterwards; the admin is always authorized on the
// game but is not necessarily in the member set. Price is an opaque
// passthrough value. The (admin_id, name) unique index backs the
// per-admin unique name rule.
type Game struct {
	ID        string        `gorm:"primaryKey;size:12" json:"id"`
	Name      string        `gorm:"size:30;not null;uniqueIndex:idx_games_admin_name" json:"name"`
	AdminID   uint          `gorm:"not null;uniqueIndex:idx_games_admin_name" json:"admin_id"`
	Admin     user.User     `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	When      time.Time     `gorm:"not null" json:"when"`
	Where     string        `gorm:"size:60;not null" json:"where"`
	Price     int           `json:"price"`
	Duration  time.Duration `gorm:"not null" json:"duration"`
	Private   bool          `gorm:"not null;default:false" json:"private"`
	CreatedAt time.Time     `json:"created_at"`

	Players []*player.Player `gorm:"many2many:game_players" json:"-"`
}

func (g *Game) IsInTheFuture() bool {
	return g.When.After(time.Now())
}

// ParticipationRequest is the bilateral request binding for game rosters:
// a player asks to join, the game's admin resolves. At most one PENDING
// row per (game, requester), enforced by a partial unique index.
type ParticipationRequest struct {
	request.Bilateral
	RequesterID uint          `gorm:"not null;index" json:"requester_id"`
	Requester   player.Player `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"-"`
	GameID      string        `gorm:"size:12;not null;index" json:"game_id"`
	Game        Game          `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
}

// View is the detail shape for a game, with roster usernames resolved.
type View struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Admin    string    `json:"admin"`
	When     time.Time `json:"when"`
	Where    string    `json:"where"`
	Price    int       `json:"price"`
	Duration string    `json:"duration"`
	Private  bool      `json:"private"`
	Members  []string  `json:"members"`
}

func (g *Game) View() View {
	members := make([]string, len(g.Players))
	for i, p := range g.Players {
		members[i] = p.Username()
	}
	return View{
		ID:       g.ID,
		Name:     g.Name,
		Admin:    g.Admin.Username,
		When:     g.When,
		Where:    g.Where,
		Price:    g.Price,
		Duration: g.Duration.String(),
		Private:  g.Private,
		Members:  members,
	}
}
