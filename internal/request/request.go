package request

import (
	"time"

	"github.com/DinisvCosta/game-planner/pkg/apperr"
)

// State of a bilateral request. Pending requests are the only ones that
// can still transition; resolved rows are kept as history and never
// deleted or reused.
type State string

const (
	StatePending  State = "PENDING"
	StateAccepted State = "ACCEPTED"
	StateDeclined State = "DECLINED"
	StateCanceled State = "CANCELED"
)

// Action a party can take on a pending request. Cancel belongs to the
// requester; accept and decline belong to the resolving party (the
// requestee of a friend request, the admin of a game).
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionAccept, ActionDecline, ActionCancel:
		return Action(s), nil
	}
	return "", apperr.Validation("action must be one of accept, decline, cancel")
}

// Bilateral is the embeddable core of a two-party request: one party's
// action creates it, the other party's action resolves it. The two domain
// bindings (friend requests, game participation requests) embed it and
// delegate transition checks to Resolve.
type Bilateral struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	State       State      `gorm:"size:20;not null;default:'PENDING'" json:"state"`
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

func (b *Bilateral) Pending() bool {
	return b.State == StatePending && b.ResolvedAt == nil
}

// Resolve applies action on behalf of an actor whose role relative to the
// request is described by the two flags. The state and the resolution
// timestamp change together; a request that is no longer pending rejects
// every action, which is what makes concurrent resolution single-winner
// once the enclosing transaction rechecks state.
func (b *Bilateral) Resolve(action Action, actorIsRequester, actorIsResolver bool, now time.Time) error {
	if !b.Pending() {
		return apperr.Conflict("request has already been resolved")
	}

	switch action {
	case ActionCancel:
		if !actorIsRequester {
			return apperr.PermissionDenied("only the requester can cancel a request")
		}
		b.State = StateCanceled
	case ActionAccept:
		if !actorIsResolver {
			return apperr.PermissionDenied("only the receiving party can accept a request")
		}
		b.State = StateAccepted
	case ActionDecline:
		if !actorIsResolver {
			return apperr.PermissionDenied("only the receiving party can decline a request")
		}
		b.State = StateDeclined
	default:
		return apperr.Validation("unknown request action")
	}

	b.ResolvedAt = &now
	return nil
}
