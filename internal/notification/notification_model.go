package notification

import "time"

// Type tags a notification with the social action that produced it.
type Type string

const (
	TypeFriendRequest        Type = "FRIEND_REQUEST"
	TypeParticipationRequest Type = "PARTICIPATION_REQUEST"
	TypeAddedAsFriend        Type = "ADDED_AS_FRIEND"
	TypeAddedToGame          Type = "ADDED_TO_GAME"
)

// Notification is owned exclusively by the broker; the engines create and
// reconcile them only through it. Recipient and sender are identity
// (user) references. Read and ReadAt are set together.
type Notification struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Type        Type       `gorm:"size:30;not null;index:idx_notifications_recipient_unread" json:"type"`
	RecipientID uint       `gorm:"not null;index:idx_notifications_recipient_unread" json:"recipient_id"`
	SenderID    *uint      `json:"sender_id,omitempty"`
	GameID      *string    `gorm:"size:12" json:"game_id,omitempty"`
	Read        bool       `gorm:"not null;default:false;index:idx_notifications_recipient_unread" json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
