package friendship

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/internal/notification"
	"github.com/DinisvCosta/game-planner/internal/player"
)

// Repository is the storage surface of the relationship engine. Players()
// and Notifications() hand out repositories bound to the same scope, so
// inside WithTransaction every mutation shares one transaction.
type Repository interface {
	Create(fr *FriendRequest) error
	GetByID(id uint) (*FriendRequest, error)
	Update(fr *FriendRequest) error
	FindPendingBetween(aPlayerID, bPlayerID uint) (*FriendRequest, error)
	ListPendingFor(requesteePlayerID uint) ([]FriendRequest, error)

	Players() player.Repository
	Notifications() notification.Repository
	WithTransaction(txFunc func(Repository) error) error
}

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) Repository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) Create(fr *FriendRequest) error {
	return r.db.Create(fr).Error
}

func (r *friendshipRepository) GetByID(id uint) (*FriendRequest, error) {
	var fr FriendRequest
	err := r.db.Preload("Requester.User").Preload("Requestee.User").First(&fr, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fr, nil
}

func (r *friendshipRepository) Update(fr *FriendRequest) error {
	return r.db.Save(fr).Error
}

func (r *friendshipRepository) FindPendingBetween(aPlayerID, bPlayerID uint) (*FriendRequest, error) {
	var fr FriendRequest
	err := r.db.Where(
		"state = 'PENDING' AND ((requester_id = ? AND requestee_id = ?) OR (requester_id = ? AND requestee_id = ?))",
		aPlayerID, bPlayerID, bPlayerID, aPlayerID,
	).First(&fr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fr, nil
}

func (r *friendshipRepository) ListPendingFor(requesteePlayerID uint) ([]FriendRequest, error) {
	var requests []FriendRequest
	err := r.db.Preload("Requester.User").
		Where("requestee_id = ? AND state = 'PENDING'", requesteePlayerID).
		Order("requested_at desc").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *friendshipRepository) Players() player.Repository {
	return player.NewPlayerRepository(r.db)
}

func (r *friendshipRepository) Notifications() notification.Repository {
	return notification.NewNotificationRepository(r.db)
}

// WithTransaction runs txFunc in a serializable transaction so that the
// read-decide-mutate-notify span of an engine operation is atomic.
func (r *friendshipRepository) WithTransaction(txFunc func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return txFunc(&friendshipRepository{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}
