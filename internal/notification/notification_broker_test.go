package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DinisvCosta/game-planner/pkg/apperr"
)

type fakeRepository struct {
	nextID        uint
	notifications []Notification
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{nextID: 1}
}

func (r *fakeRepository) Create(n *Notification) error {
	n.ID = r.nextID
	r.nextID++
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeRepository) GetByID(id uint) (*Notification, error) {
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			n := r.notifications[i]
			return &n, nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) Update(n *Notification) error {
	for i := range r.notifications {
		if r.notifications[i].ID == n.ID {
			r.notifications[i] = *n
			return nil
		}
	}
	return nil
}

func (r *fakeRepository) ListUnread(recipientID uint) ([]Notification, error) {
	var unread []Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			unread = append(unread, n)
		}
	}
	return unread, nil
}

func (r *fakeRepository) matches(n Notification, f Filter) bool {
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

func (r *fakeRepository) FindUnread(f Filter) (*Notification, error) {
	for i := range r.notifications {
		if r.matches(r.notifications[i], f) {
			n := r.notifications[i]
			return &n, nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) DeleteUnread(f Filter) error {
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if !r.matches(n, f) {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return nil
}

func TestNotifyCreatesUnread(t *testing.T) {
	repo := newFakeRepository()
	broker := NewBroker(repo)

	sender := uint(2)
	require.NoError(t, broker.Notify(TypeFriendRequest, 1, &sender, nil))

	unread, err := broker.ListUnread(1)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, TypeFriendRequest, unread[0].Type)
	assert.False(t, unread[0].Read)
	assert.Nil(t, unread[0].ReadAt)
}

func TestMarkReadSetsTimestampOnce(t *testing.T) {
	repo := newFakeRepository()
	broker := NewBroker(repo)
	require.NoError(t, broker.Notify(TypeAddedToGame, 1, nil, nil))

	require.NoError(t, broker.MarkRead(1, 1))

	n, err := repo.GetByID(1)
	require.NoError(t, err)
	require.True(t, n.Read)
	require.NotNil(t, n.ReadAt)
	firstReadAt := *n.ReadAt

	// Idempotent second mark keeps the original timestamp.
	require.NoError(t, broker.MarkRead(1, 1))
	n, _ = repo.GetByID(1)
	assert.Equal(t, firstReadAt, *n.ReadAt)
}

func TestMarkReadWrongRecipient(t *testing.T) {
	repo := newFakeRepository()
	broker := NewBroker(repo)
	require.NoError(t, broker.Notify(TypeAddedToGame, 1, nil, nil))

	err := broker.MarkRead(1, 2)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
}

func TestMarkReadStrictRejectsSecondRead(t *testing.T) {
	repo := newFakeRepository()
	broker := NewBroker(repo)
	require.NoError(t, broker.Notify(TypeAddedToGame, 1, nil, nil))

	require.NoError(t, broker.MarkReadStrict(1, 1))
	err := broker.MarkReadStrict(1, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestMarkReadStrictMissing(t *testing.T) {
	broker := NewBroker(newFakeRepository())

	err := broker.MarkReadStrict(99, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMarkAllRead(t *testing.T) {
	repo := newFakeRepository()
	broker := NewBroker(repo)
	require.NoError(t, broker.Notify(TypeFriendRequest, 1, nil, nil))
	require.NoError(t, broker.Notify(TypeAddedToGame, 1, nil, nil))
	require.NoError(t, broker.Notify(TypeFriendRequest, 2, nil, nil))

	require.NoError(t, broker.MarkAllRead(1))

	unread, err := broker.ListUnread(1)
	require.NoError(t, err)
	assert.Empty(t, unread)

	unread, err = broker.ListUnread(2)
	require.NoError(t, err)
	assert.Len(t, unread, 1)
}

func TestReconcileReadOnlyTouchesUnread(t *testing.T) {
	repo := newFakeRepository()
	broker := NewBroker(repo)

	sender := uint(2)
	require.NoError(t, broker.Notify(TypeFriendRequest, 1, &sender, nil))
	require.NoError(t, broker.MarkRead(1, 1))
	n, _ := repo.GetByID(1)
	firstReadAt := *n.ReadAt

	// Already read: reconcile is a no-op, not an error.
	require.NoError(t, broker.ReconcileRead(Filter{Type: TypeFriendRequest, RecipientID: 1, SenderID: &sender}))
	n, _ = repo.GetByID(1)
	assert.Equal(t, firstReadAt, *n.ReadAt)

	// Missing: also a no-op.
	other := uint(9)
	require.NoError(t, broker.ReconcileRead(Filter{Type: TypeFriendRequest, RecipientID: 1, SenderID: &other}))
}

func TestDeleteIfUnreadKeepsReadHistory(t *testing.T) {
	repo := newFakeRepository()
	broker := NewBroker(repo)

	sender := uint(2)
	require.NoError(t, broker.Notify(TypeFriendRequest, 1, &sender, nil))
	require.NoError(t, broker.MarkRead(1, 1))
	require.NoError(t, broker.Notify(TypeFriendRequest, 1, &sender, nil))

	require.NoError(t, broker.DeleteIfUnread(Filter{Type: TypeFriendRequest, RecipientID: 1, SenderID: &sender}))

	// The read one survives as history, the unread one is gone.
	read, err := repo.GetByID(1)
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.True(t, read.Read)

	gone, err := repo.GetByID(2)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestFilterNarrowsBySenderAndGame(t *testing.T) {
	repo := newFakeRepository()
	broker := NewBroker(repo)

	alice, bob := uint(2), uint(3)
	gameA, gameB := "abc123def456", "zzz999yyy888"
	require.NoError(t, broker.Notify(TypeParticipationRequest, 1, &alice, &gameA))
	require.NoError(t, broker.Notify(TypeParticipationRequest, 1, &bob, &gameA))
	require.NoError(t, broker.Notify(TypeParticipationRequest, 1, &alice, &gameB))

	require.NoError(t, broker.DeleteIfUnread(Filter{
		Type:        TypeParticipationRequest,
		RecipientID: 1,
		SenderID:    &alice,
		GameID:      &gameA,
	}))

	unread, err := broker.ListUnread(1)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	for _, n := range unread {
		if *n.SenderID == alice {
			assert.Equal(t, gameB, *n.GameID)
		}
	}
}
