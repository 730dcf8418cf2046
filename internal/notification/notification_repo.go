package notification

import (
	"errors"

	"gorm.io/gorm"
)

// Filter selects unread notifications for reconciliation. Type and
// RecipientID are always required; SenderID and GameID narrow the match
// when set.
type Filter struct {
	Type        Type
	RecipientID uint
	SenderID    *uint
	GameID      *string
}

type Repository interface {
	Create(n *Notification) error
	GetByID(id uint) (*Notification, error)
	Update(n *Notification) error
	ListUnread(recipientID uint) ([]Notification, error)
	FindUnread(f Filter) (*Notification, error)
	DeleteUnread(f Filter) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) Repository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *Notification) error {
	return r.db.Create(n).Error
}

func (r *notificationRepository) GetByID(id uint) (*Notification, error) {
	var n Notification
	if err := r.db.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) Update(n *Notification) error {
	return r.db.Save(n).Error
}

func (r *notificationRepository) ListUnread(recipientID uint) ([]Notification, error) {
	var notifications []Notification
	err := r.db.Where("recipient_id = ? AND read = ?", recipientID, false).
		Order("created_at desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) FindUnread(f Filter) (*Notification, error) {
	var n Notification
	if err := filterQuery(r.db, f).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) DeleteUnread(f Filter) error {
	return filterQuery(r.db, f).Delete(&Notification{}).Error
}

func filterQuery(db *gorm.DB, f Filter) *gorm.DB {
	query := db.Where("type = ? AND recipient_id = ? AND read = ?", f.Type, f.RecipientID, false)
	if f.SenderID != nil {
		query = query.Where("sender_id = ?", *f.SenderID)
	}
	if f.GameID != nil {
		query = query.Where("game_id = ?", *f.GameID)
	}
	return query
}
