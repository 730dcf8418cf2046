package friendship

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/internal/notification"
	"github.com/DinisvCosta/game-planner/internal/player"
	"github.com/DinisvCosta/game-planner/internal/request"
	"github.com/DinisvCosta/game-planner/pkg/apperr"
)

// Service is the relationship engine: it owns the friend-request
// lifecycle and the resulting symmetric friend-set mutation, and keeps
// the notification side channel consistent with request state.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SendRequest creates a pending friend request from the acting user to
// the named player and notifies the requestee.
func (s *Service) SendRequest(requesterUserID uint, requesteeUsername string) (*FriendRequest, error) {
	var created *FriendRequest

	err := s.repo.WithTransaction(func(tx Repository) error {
		requester, err := tx.Players().GetByUserID(requesterUserID)
		if err != nil {
			return err
		}
		if requester == nil {
			return apperr.NotFound("player")
		}

		requestee, err := tx.Players().GetByUsername(requesteeUsername)
		if err != nil {
			return err
		}
		if requestee == nil {
			return apperr.NotFound("player")
		}

		if requester.ID == requestee.ID {
			return apperr.PermissionDenied("you cannot send a friend request to yourself")
		}

		friends, err := tx.Players().AreFriends(requester.ID, requestee.ID)
		if err != nil {
			return err
		}
		if friends {
			return apperr.Conflict("you are already friends")
		}

		existing, err := tx.FindPendingBetween(requester.ID, requestee.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("a pending friend request already exists")
		}

		fr := &FriendRequest{
			Bilateral: request.Bilateral{
				State:       request.StatePending,
				RequestedAt: time.Now(),
			},
			RequesterID: requester.ID,
			RequesteeID: requestee.ID,
		}
		if err := tx.Create(fr); err != nil {
			// Concurrent duplicate submission: the partial unique index
			// picks exactly one winner, the loser lands here.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("a pending friend request already exists")
			}
			return err
		}

		broker := notification.NewBroker(tx.Notifications())
		if err := broker.Notify(notification.TypeFriendRequest, requestee.UserID, &requester.UserID, nil); err != nil {
			return err
		}

		created = fr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Resolve applies accept, decline or cancel to a pending friend request
// on behalf of the acting user and reconciles the notification side
// channel:
//
//	cancel:  delete the FRIEND_REQUEST notification if still unread
//	decline: mark it read, keep it as history
//	accept:  mutate both friend sets, mark it read, notify the requester
func (s *Service) Resolve(actorUserID uint, requestID uint, action request.Action) error {
	return s.repo.WithTransaction(func(tx Repository) error {
		fr, err := tx.GetByID(requestID)
		if err != nil {
			return err
		}
		if fr == nil {
			return apperr.NotFound("friend request")
		}

		actorIsRequester := fr.Requester.UserID == actorUserID
		actorIsRequestee := fr.Requestee.UserID == actorUserID
		if !actorIsRequester && !actorIsRequestee {
			return apperr.PermissionDenied("you are not a party to this friend request")
		}

		if err := fr.Bilateral.Resolve(action, actorIsRequester, actorIsRequestee, time.Now()); err != nil {
			return err
		}
		if err := tx.Update(fr); err != nil {
			return err
		}

		broker := notification.NewBroker(tx.Notifications())
		originalNotif := notification.Filter{
			Type:        notification.TypeFriendRequest,
			RecipientID: fr.Requestee.UserID,
			SenderID:    &fr.Requester.UserID,
		}

		switch action {
		case request.ActionCancel:
			return broker.DeleteIfUnread(originalNotif)
		case request.ActionDecline:
			return broker.ReconcileRead(originalNotif)
		case request.ActionAccept:
			if err := tx.Players().AddFriends(fr.RequesterID, fr.RequesteeID); err != nil {
				return err
			}
			if err := broker.ReconcileRead(originalNotif); err != nil {
				return err
			}
			return broker.Notify(notification.TypeAddedAsFriend, fr.Requester.UserID, &fr.Requestee.UserID, nil)
		}
		return nil
	})
}

// RemoveFriend removes the friendship between the acting user and the
// named player, bilaterally, and deletes any unread "added as friend"
// notice held by the removed party. The historical request row stays
// untouched.
func (s *Service) RemoveFriend(actorUserID uint, otherUsername string) error {
	return s.repo.WithTransaction(func(tx Repository) error {
		actor, err := tx.Players().GetByUserID(actorUserID)
		if err != nil {
			return err
		}
		if actor == nil {
			return apperr.NotFound("player")
		}

		other, err := tx.Players().GetByUsername(otherUsername)
		if err != nil {
			return err
		}
		if other == nil {
			return apperr.NotFound("player")
		}

		friends, err := tx.Players().AreFriends(actor.ID, other.ID)
		if err != nil {
			return err
		}
		if !friends {
			return apperr.NotFound("friendship")
		}

		if err := tx.Players().RemoveFriends(actor.ID, other.ID); err != nil {
			return err
		}

		broker := notification.NewBroker(tx.Notifications())
		return broker.DeleteIfUnread(notification.Filter{
			Type:        notification.TypeAddedAsFriend,
			RecipientID: other.UserID,
		})
	})
}

// ListPendingReceived returns the pending requests addressed to the
// acting user.
func (s *Service) ListPendingReceived(actorUserID uint) ([]FriendRequest, error) {
	p, err := s.repo.Players().GetByUserID(actorUserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("player")
	}
	return s.repo.ListPendingFor(p.ID)
}

// Friends returns the acting user's current friends.
func (s *Service) Friends(actorUserID uint) ([]player.Player, error) {
	p, err := s.repo.Players().GetByUserID(actorUserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("player")
	}
	return s.repo.Players().FriendsOf(p.ID)
}

// PendingBetween reports the pending request between two players, if any.
// Used by the profile read path to show incoming/outgoing request state.
func (s *Service) PendingBetween(aPlayerID, bPlayerID uint) (*FriendRequest, error) {
	return s.repo.FindPendingBetween(aPlayerID, bPlayerID)
}
