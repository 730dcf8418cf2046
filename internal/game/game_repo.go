package game

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/internal/notification"
	"github.com/DinisvCosta/game-planner/internal/player"
)

// Repository is the storage surface of the game roster engine. As with
// the friendship repository, Players() and Notifications() are bound to
// the same scope so WithTransaction covers cross-entity mutations.
type Repository interface {
	Create(g *Game) error
	GetByID(id string) (*Game, error)
	IDExists(id string) (bool, error)
	NameExistsForAdmin(adminUserID uint, name string) (bool, error)
	Update(g *Game) error

	AddMember(gameID string, playerID uint) error
	RemoveMember(gameID string, playerID uint) error
	SetMembers(gameID string, playerIDs []uint) error
	IsMember(gameID string, playerID uint) (bool, error)

	ListAdministered(adminUserID uint) ([]Game, error)
	ListMemberOf(playerID uint) ([]Game, error)
	ListPublic() ([]Game, error)
	ListOfPlayerVisible(profilePlayerID uint, viewerUserID *uint, viewerPlayerID *uint) ([]Game, error)

	CreateParticipation(pr *ParticipationRequest) error
	GetParticipationByID(id uint) (*ParticipationRequest, error)
	UpdateParticipation(pr *ParticipationRequest) error
	FindPendingParticipation(gameID string, requesterPlayerID uint) (*ParticipationRequest, error)
	ListPendingParticipationForGame(gameID string) ([]ParticipationRequest, error)

	Players() player.Repository
	Notifications() notification.Repository
	WithTransaction(txFunc func(Repository) error) error
}

type gameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) Repository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Create(g *Game) error {
	return r.db.Create(g).Error
}

func (r *gameRepository) GetByID(id string) (*Game, error) {
	var g Game
	err := r.db.Preload("Admin").Preload("Players.User").Where("id = ?", id).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *gameRepository) IDExists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&Game{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *gameRepository) NameExistsForAdmin(adminUserID uint, name string) (bool, error) {
	var count int64
	err := r.db.Model(&Game{}).Where("admin_id = ? AND name = ?", adminUserID, name).Count(&count).Error
	return count > 0, err
}

func (r *gameRepository) Update(g *Game) error {
	return r.db.Save(g).Error
}

func (r *gameRepository) AddMember(gameID string, playerID uint) error {
	return r.db.Exec(
		"INSERT INTO game_players (game_id, player_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		gameID, playerID,
	).Error
}

func (r *gameRepository) RemoveMember(gameID string, playerID uint) error {
	return r.db.Exec(
		"DELETE FROM game_players WHERE game_id = ? AND player_id = ?",
		gameID, playerID,
	).Error
}

func (r *gameRepository) SetMembers(gameID string, playerIDs []uint) error {
	if err := r.db.Exec("DELETE FROM game_players WHERE game_id = ?", gameID).Error; err != nil {
		return err
	}
	for _, playerID := range playerIDs {
		if err := r.AddMember(gameID, playerID); err != nil {
			return err
		}
	}
	return nil
}

func (r *gameRepository) IsMember(gameID string, playerID uint) (bool, error) {
	var count int64
	err := r.db.Table("game_players").
		Where("game_id = ? AND player_id = ?", gameID, playerID).
		Count(&count).Error
	return count > 0, err
}

func (r *gameRepository) ListAdministered(adminUserID uint) ([]Game, error) {
	var games []Game
	err := r.db.Preload("Admin").Where("admin_id = ?", adminUserID).Order("\"when\" asc").Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (r *gameRepository) ListMemberOf(playerID uint) ([]Game, error) {
	var games []Game
	err := r.db.Preload("Admin").
		Joins("JOIN game_players gp ON gp.game_id = games.id").
		Where("gp.player_id = ?", playerID).
		Order("\"when\" asc").
		Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (r *gameRepository) ListPublic() ([]Game, error) {
	var games []Game
	err := r.db.Preload("Admin").Where("private = ?", false).Order("\"when\" asc").Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

// ListOfPlayerVisible returns the games a profile's player is a member
// of, restricted to what the viewer may see: public games, games the
// viewer administers, and games the viewer is also a member of.
func (r *gameRepository) ListOfPlayerVisible(profilePlayerID uint, viewerUserID *uint, viewerPlayerID *uint) ([]Game, error) {
	query := r.db.Preload("Admin").
		Joins("JOIN game_players gp ON gp.game_id = games.id AND gp.player_id = ?", profilePlayerID)

	if viewerUserID == nil || viewerPlayerID == nil {
		query = query.Where("games.private = ?", false)
	} else {
		query = query.Where(
			"games.private = ? OR games.admin_id = ? OR EXISTS (SELECT 1 FROM game_players gv WHERE gv.game_id = games.id AND gv.player_id = ?)",
			false, *viewerUserID, *viewerPlayerID,
		)
	}

	var games []Game
	if err := query.Distinct().Order("\"when\" asc").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (r *gameRepository) CreateParticipation(pr *ParticipationRequest) error {
	return r.db.Create(pr).Error
}

func (r *gameRepository) GetParticipationByID(id uint) (*ParticipationRequest, error) {
	var pr ParticipationRequest
	err := r.db.Preload("Requester.User").Preload("Game.Admin").First(&pr, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pr, nil
}

func (r *gameRepository) UpdateParticipation(pr *ParticipationRequest) error {
	return r.db.Save(pr).Error
}

func (r *gameRepository) FindPendingParticipation(gameID string, requesterPlayerID uint) (*ParticipationRequest, error) {
	var pr ParticipationRequest
	err := r.db.Where(
		"game_id = ? AND requester_id = ? AND state = 'PENDING'",
		gameID, requesterPlayerID,
	).First(&pr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pr, nil
}

func (r *gameRepository) ListPendingParticipationForGame(gameID string) ([]ParticipationRequest, error) {
	var requests []ParticipationRequest
	err := r.db.Preload("Requester.User").
		Where("game_id = ? AND state = 'PENDING'", gameID).
		Order("requested_at desc").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *gameRepository) Players() player.Repository {
	return player.NewPlayerRepository(r.db)
}

func (r *gameRepository) Notifications() notification.Repository {
	return notification.NewNotificationRepository(r.db)
}

// WithTransaction runs txFunc in a serializable transaction.
func (r *gameRepository) WithTransaction(txFunc func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return txFunc(&gameRepository{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}
