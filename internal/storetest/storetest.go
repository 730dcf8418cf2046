// Package storetest provides in-memory repository fakes for the engine
// unit tests. They mirror the row-level behavior of the real gorm
// repositories, including the unread-only filter semantics.
package storetest

import (
	"github.com/DinisvCosta/game-planner/internal/notification"
	"github.com/DinisvCosta/game-planner/internal/player"
)

type FakePlayers struct {
	Rows    map[uint]*player.Player
	friends map[[2]uint]bool
}

func NewFakePlayers() *FakePlayers {
	return &FakePlayers{Rows: map[uint]*player.Player{}, friends: map[[2]uint]bool{}}
}

func (f *FakePlayers) Add(p *player.Player) {
	f.Rows[p.ID] = p
}

func (f *FakePlayers) Create(p *player.Player) error {
	f.Add(p)
	return nil
}

func (f *FakePlayers) GetByID(id uint) (*player.Player, error) {
	return f.Rows[id], nil
}

func (f *FakePlayers) GetByUserID(userID uint) (*player.Player, error) {
	for _, p := range f.Rows {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *FakePlayers) GetByUsername(username string) (*player.Player, error) {
	for _, p := range f.Rows {
		if p.User.Username == username {
			return p, nil
		}
	}
	return nil, nil
}

func (f *FakePlayers) List(excludeUserID *uint) ([]player.Player, error) {
	var out []player.Player
	for _, p := range f.Rows {
		if excludeUserID != nil && p.UserID == *excludeUserID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *FakePlayers) AreFriends(aID, bID uint) (bool, error) {
	return f.friends[[2]uint{aID, bID}], nil
}

func (f *FakePlayers) AddFriends(aID, bID uint) error {
	f.friends[[2]uint{aID, bID}] = true
	f.friends[[2]uint{bID, aID}] = true
	return nil
}

func (f *FakePlayers) RemoveFriends(aID, bID uint) error {
	delete(f.friends, [2]uint{aID, bID})
	delete(f.friends, [2]uint{bID, aID})
	return nil
}

func (f *FakePlayers) FriendsOf(playerID uint) ([]player.Player, error) {
	var out []player.Player
	for pair, ok := range f.friends {
		if ok && pair[0] == playerID {
			out = append(out, *f.Rows[pair[1]])
		}
	}
	return out, nil
}

func (f *FakePlayers) IncrementGamesPlayed(playerID uint) error {
	f.Rows[playerID].GamesPlayed++
	return nil
}

type FakeNotifications struct {
	nextID uint
	rows   []notification.Notification
}

func (f *FakeNotifications) Create(n *notification.Notification) error {
	f.nextID++
	n.ID = f.nextID
	f.rows = append(f.rows, *n)
	return nil
}

func (f *FakeNotifications) GetByID(id uint) (*notification.Notification, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			n := f.rows[i]
			return &n, nil
		}
	}
	return nil, nil
}

func (f *FakeNotifications) Update(n *notification.Notification) error {
	for i := range f.rows {
		if f.rows[i].ID == n.ID {
			f.rows[i] = *n
		}
	}
	return nil
}

func (f *FakeNotifications) ListUnread(recipientID uint) ([]notification.Notification, error) {
	var out []notification.Notification
	for _, n := range f.rows {
		if n.RecipientID == recipientID && !n.Read {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *FakeNotifications) FindUnread(filter notification.Filter) (*notification.Notification, error) {
	for i := range f.rows {
		if matches(f.rows[i], filter) {
			n := f.rows[i]
			return &n, nil
		}
	}
	return nil, nil
}

func (f *FakeNotifications) DeleteUnread(filter notification.Filter) error {
	kept := f.rows[:0]
	for _, n := range f.rows {
		if !matches(n, filter) {
			kept = append(kept, n)
		}
	}
	f.rows = kept
	return nil
}

// All returns every notification held for the recipient, read or not.
func (f *FakeNotifications) All(recipientID uint) []notification.Notification {
	var out []notification.Notification
	for _, n := range f.rows {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

func matches(n notification.Notification, f notification.Filter) bool {
	if n.Type != f.Type || n.RecipientID != f.RecipientID || n.Read {
		return false
	}
	if f.SenderID != nil && (n.SenderID == nil || *n.SenderID != *f.SenderID) {
		return false
	}
	if f.GameID != nil && (n.GameID == nil || *n.GameID != *f.GameID) {
		return false
	}
	return true
}
