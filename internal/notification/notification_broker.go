package notification

import (
	"time"

	"github.com/DinisvCosta/game-planner/pkg/apperr"
)

// Broker is the only component that creates or reconciles notifications.
// The engines construct one over a transaction-scoped repository so that
// a state transition and its notification side effect commit or fail
// together.
type Broker struct {
	repo Repository
}

func NewBroker(repo Repository) *Broker {
	return &Broker{repo: repo}
}

// Notify creates an unread notification.
func (b *Broker) Notify(t Type, recipientID uint, senderID *uint, gameID *string) error {
	n := &Notification{
		Type:        t,
		RecipientID: recipientID,
		SenderID:    senderID,
		GameID:      gameID,
		CreatedAt:   time.Now(),
	}
	return b.repo.Create(n)
}

// MarkRead flips a notification to read on behalf of its recipient. It is
// idempotent: marking an already-read notification is a no-op.
func (b *Broker) MarkRead(id uint, actorUserID uint) error {
	n, err := b.repo.GetByID(id)
	if err != nil {
		return err
	}
	if n == nil {
		return apperr.NotFound("notification")
	}
	if n.RecipientID != actorUserID {
		return apperr.PermissionDenied("notification belongs to another user")
	}
	if n.Read {
		return nil
	}
	return b.markRead(n)
}

// MarkReadStrict requires the notification to still be unread, so the
// read timestamp is set exactly once.
func (b *Broker) MarkReadStrict(id uint, actorUserID uint) error {
	n, err := b.repo.GetByID(id)
	if err != nil {
		return err
	}
	if n == nil {
		return apperr.NotFound("notification")
	}
	if n.RecipientID != actorUserID {
		return apperr.PermissionDenied("notification belongs to another user")
	}
	if n.Read {
		return apperr.Conflict("notification has already been read")
	}
	return b.markRead(n)
}

// MarkAllRead marks every unread notification of the recipient as read.
func (b *Broker) MarkAllRead(recipientID uint) error {
	unread, err := b.repo.ListUnread(recipientID)
	if err != nil {
		return err
	}
	for i := range unread {
		if err := b.markRead(&unread[i]); err != nil {
			return err
		}
	}
	return nil
}

// ListUnread returns the recipient's unread notifications, newest first.
func (b *Broker) ListUnread(recipientID uint) ([]Notification, error) {
	return b.repo.ListUnread(recipientID)
}

// ReconcileRead marks the matching notification read if it is still
// unread; an already-read or missing notification is left alone. Used by
// the engines when a request is accepted or declined.
func (b *Broker) ReconcileRead(f Filter) error {
	n, err := b.repo.FindUnread(f)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}
	return b.markRead(n)
}

// DeleteIfUnread removes matching notifications that were never read. A
// notification the recipient has already observed stays as history. Used
// by the engines when a request is canceled or a friendship removed.
func (b *Broker) DeleteIfUnread(f Filter) error {
	return b.repo.DeleteUnread(f)
}

func (b *Broker) markRead(n *Notification) error {
	now := time.Now()
	n.Read = true
	n.ReadAt = &now
	return b.repo.Update(n)
}
