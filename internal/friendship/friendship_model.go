package friendship

import (
	"github.com/DinisvCosta/game-planner/internal/player"
	"github.com/DinisvCosta/game-planner/internal/request"
)

// FriendRequest is the bilateral request binding for friendships. Rows
// are append-only history; at most one PENDING row may exist per
// unordered player pair, enforced by a partial unique index over
// (LEAST(requester_id, requestee_id), GREATEST(...)) WHERE state =
// 'PENDING'.
type FriendRequest struct {
	request.Bilateral
	RequesterID uint          `gorm:"not null;index" json:"requester_id"`
	RequesteeID uint          `gorm:"not null;index" json:"requestee_id"`
	Requester   player.Player `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"-"`
	Requestee   player.Player `gorm:"foreignKey:RequesteeID;constraint:OnDelete:CASCADE" json:"-"`
}

// View is the listing shape for a pending friend request.
type View struct {
	ID          uint   `json:"id"`
	From        string `json:"from"`
	RequestedAt string `json:"requested_at"`
}

func (fr *FriendRequest) View() View {
	return View{
		ID:          fr.ID,
		From:        fr.Requester.Username(),
		RequestedAt: fr.RequestedAt.Format("2006-01-02 15:04:05"),
	}
}
