package player

import (
	"errors"

	"gorm.io/gorm"
)

// Repository exposes only the access patterns the engines need. Lookups
// return (nil, nil) when the row does not exist.
type Repository interface {
	Create(p *Player) error
	GetByID(id uint) (*Player, error)
	GetByUserID(userID uint) (*Player, error)
	GetByUsername(username string) (*Player, error)
	List(excludeUserID *uint) ([]Player, error)

	AreFriends(aID, bID uint) (bool, error)
	AddFriends(aID, bID uint) error
	RemoveFriends(aID, bID uint) error
	FriendsOf(playerID uint) ([]Player, error)

	IncrementGamesPlayed(playerID uint) error
}

type playerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) Repository {
	return &playerRepository{db: db}
}

func (r *playerRepository) Create(p *Player) error {
	return r.db.Create(p).Error
}

func (r *playerRepository) GetByID(id uint) (*Player, error) {
	var p Player
	if err := r.db.Preload("User").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *playerRepository) GetByUserID(userID uint) (*Player, error) {
	var p Player
	if err := r.db.Preload("User").Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *playerRepository) GetByUsername(username string) (*Player, error) {
	var p Player
	err := r.db.Preload("User").
		Joins("JOIN users ON users.id = players.user_id").
		Where("users.username = ?", username).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *playerRepository) List(excludeUserID *uint) ([]Player, error) {
	var players []Player
	query := r.db.Preload("User")
	if excludeUserID != nil {
		query = query.Where("user_id <> ?", *excludeUserID)
	}
	if err := query.Order("id asc").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (r *playerRepository) AreFriends(aID, bID uint) (bool, error) {
	var count int64
	err := r.db.Table("player_friends").
		Where("player_id = ? AND friend_id = ?", aID, bID).
		Count(&count).Error
	return count > 0, err
}

// AddFriends writes the mirrored pair of join rows. Reconciling both
// directions in one statement keeps the friend set symmetric even if the
// pair already exists in one direction.
func (r *playerRepository) AddFriends(aID, bID uint) error {
	return r.db.Exec(
		"INSERT INTO player_friends (player_id, friend_id) VALUES (?, ?), (?, ?) ON CONFLICT DO NOTHING",
		aID, bID, bID, aID,
	).Error
}

func (r *playerRepository) RemoveFriends(aID, bID uint) error {
	return r.db.Exec(
		"DELETE FROM player_friends WHERE (player_id = ? AND friend_id = ?) OR (player_id = ? AND friend_id = ?)",
		aID, bID, bID, aID,
	).Error
}

func (r *playerRepository) FriendsOf(playerID uint) ([]Player, error) {
	var friends []Player
	err := r.db.Preload("User").
		Joins("JOIN player_friends pf ON pf.friend_id = players.id").
		Where("pf.player_id = ?", playerID).
		Order("players.id asc").
		Find(&friends).Error
	if err != nil {
		return nil, err
	}
	return friends, nil
}

func (r *playerRepository) IncrementGamesPlayed(playerID uint) error {
	return r.db.Model(&Player{}).
		Where("id = ?", playerID).
		UpdateColumn("games_played", gorm.Expr("games_played + 1")).Error
}
