package game

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/internal/authz"
	"github.com/DinisvCosta/game-planner/internal/notification"
	"github.com/DinisvCosta/game-planner/internal/request"
	"github.com/DinisvCosta/game-planner/pkg/apperr"
	"github.com/DinisvCosta/game-planner/pkg/pkgen"
)

// Service is the game roster engine: it owns games, roster mutation and
// the participation-request lifecycle.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Name            string
	When            time.Time
	Where           string
	MemberUsernames []string
	Price           int
	Duration        time.Duration
	Private         bool
}

// UpdateInput carries partial game edits. An absent field, and likewise
// an empty or zero submitted value, means "do not change", the inherited
// contract; there is no way to clear a field. Private is the exception:
// when present it is always applied.
type UpdateInput struct {
	Name            *string
	When            *time.Time
	Where           *string
	MemberUsernames []string
	Price           *int
	Duration        *time.Duration
	Private         *bool
}

// errCreateRace signals that an insert lost a unique-index race and the
// whole creation attempt must rerun in a fresh transaction.
var errCreateRace = errors.New("game creation lost a unique-index race")

// Create persists a new game administered by the acting user. The short
// identifier is generated by retrying random candidates until one is
// free; the existence check and the insert run in the same transaction.
// A duplicate-key failure aborts the surrounding Postgres transaction,
// so no recheck can run inside it: the attempt rolls back and the whole
// closure reruns, where the fresh name check distinguishes a lost
// same-name race (Conflict) from an identifier collision (new candidate).
func (s *Service) Create(adminUserID uint, input CreateInput) (*Game, error) {
	for {
		created, err := s.createOnce(adminUserID, input)
		if errors.Is(err, errCreateRace) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
}

func (s *Service) createOnce(adminUserID uint, input CreateInput) (*Game, error) {
	var created *Game

	err := s.repo.WithTransaction(func(tx Repository) error {
		nameTaken, err := tx.NameExistsForAdmin(adminUserID, input.Name)
		if err != nil {
			return err
		}
		if nameTaken {
			return apperr.Conflict("you already have a game with this name")
		}

		memberIDs := make([]uint, 0, len(input.MemberUsernames))
		for _, username := range input.MemberUsernames {
			p, err := tx.Players().GetByUsername(username)
			if err != nil {
				return err
			}
			if p == nil {
				return apperr.NotFound("player " + username)
			}
			memberIDs = append(memberIDs, p.ID)
		}

		g := &Game{
			Name:     input.Name,
			AdminID:  adminUserID,
			When:     input.When,
			Where:    input.Where,
			Price:    input.Price,
			Duration: input.Duration,
			Private:  input.Private,
		}

		for {
			g.ID = pkgen.GameID()
			exists, err := tx.IDExists(g.ID)
			if err != nil {
				return err
			}
			if !exists {
				break
			}
		}

		if err := tx.Create(g); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errCreateRace
			}
			return err
		}

		for _, playerID := range memberIDs {
			if err := tx.AddMember(g.ID, playerID); err != nil {
				return err
			}
			if !g.IsInTheFuture() {
				if err := tx.Players().IncrementGamesPlayed(playerID); err != nil {
					return err
				}
			}
		}

		created = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies partial edits to a game. Admin only.
func (s *Service) Update(actorUserID uint, gameID string, input UpdateInput) error {
	return s.repo.WithTransaction(func(tx Repository) error {
		g, err := tx.GetByID(gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return apperr.NotFound("game")
		}
		if !authz.CanMutateGame(&actorUserID, g.AdminID) {
			return apperr.PermissionDenied("only the game admin can edit a game")
		}

		if input.Name != nil && *input.Name != "" && *input.Name != g.Name {
			nameTaken, err := tx.NameExistsForAdmin(g.AdminID, *input.Name)
			if err != nil {
				return err
			}
			if nameTaken {
				return apperr.Conflict("you already have a game with this name")
			}
			g.Name = *input.Name
		}
		if input.When != nil && !input.When.IsZero() {
			g.When = *input.When
		}
		if input.Where != nil && *input.Where != "" {
			g.Where = *input.Where
		}
		if input.Price != nil && *input.Price != 0 {
			g.Price = *input.Price
		}
		if input.Duration != nil && *input.Duration != 0 {
			g.Duration = *input.Duration
		}
		if input.Private != nil {
			g.Private = *input.Private
		}

		// Avoid gorm re-saving associations along with the row.
		g.Players = nil
		if err := tx.Update(g); err != nil {
			return err
		}

		if len(input.MemberUsernames) > 0 {
			memberIDs := make([]uint, 0, len(input.MemberUsernames))
			for _, username := range input.MemberUsernames {
				p, err := tx.Players().GetByUsername(username)
				if err != nil {
					return err
				}
				if p == nil {
					return apperr.NotFound("player " + username)
				}
				memberIDs = append(memberIDs, p.ID)
			}
			if err := tx.SetMembers(g.ID, memberIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddMember puts the named player on the roster. Admin only; Conflict if
// already a member.
func (s *Service) AddMember(actorUserID uint, gameID, username string) error {
	return s.repo.WithTransaction(func(tx Repository) error {
		g, err := tx.GetByID(gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return apperr.NotFound("game")
		}
		if !authz.CanMutateGame(&actorUserID, g.AdminID) {
			return apperr.PermissionDenied("only the game admin can manage the roster")
		}

		p, err := tx.Players().GetByUsername(username)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("player")
		}

		member, err := tx.IsMember(gameID, p.ID)
		if err != nil {
			return err
		}
		if member {
			return apperr.Conflict("player is already a member of this game")
		}
		if err := tx.AddMember(gameID, p.ID); err != nil {
			return err
		}
		// Roster fixups after the game took place still count toward the
		// player's tally.
		if !g.IsInTheFuture() {
			return tx.Players().IncrementGamesPlayed(p.ID)
		}
		return nil
	})
}

// RemoveMember takes the named player off the roster. Admin only;
// Conflict if not a member.
func (s *Service) RemoveMember(actorUserID uint, gameID, username string) error {
	return s.repo.WithTransaction(func(tx Repository) error {
		g, err := tx.GetByID(gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return apperr.NotFound("game")
		}
		if !authz.CanMutateGame(&actorUserID, g.AdminID) {
			return apperr.PermissionDenied("only the game admin can manage the roster")
		}

		p, err := tx.Players().GetByUsername(username)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("player")
		}

		member, err := tx.IsMember(gameID, p.ID)
		if err != nil {
			return err
		}
		if !member {
			return apperr.Conflict("player is not a member of this game")
		}
		return tx.RemoveMember(gameID, p.ID)
	})
}

// RequestParticipation creates a pending participation request and
// notifies the game's admin.
func (s *Service) RequestParticipation(requesterUserID uint, gameID string) (*ParticipationRequest, error) {
	var created *ParticipationRequest

	err := s.repo.WithTransaction(func(tx Repository) error {
		g, err := tx.GetByID(gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return apperr.NotFound("game")
		}

		requester, err := tx.Players().GetByUserID(requesterUserID)
		if err != nil {
			return err
		}
		if requester == nil {
			return apperr.NotFound("player")
		}

		if g.AdminID == requesterUserID {
			return apperr.Conflict("the game admin cannot request participation")
		}

		member, err := tx.IsMember(gameID, requester.ID)
		if err != nil {
			return err
		}
		if member {
			return apperr.Conflict("you are already a member of this game")
		}

		existing, err := tx.FindPendingParticipation(gameID, requester.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("a pending participation request already exists")
		}

		pr := &ParticipationRequest{
			Bilateral: request.Bilateral{
				State:       request.StatePending,
				RequestedAt: time.Now(),
			},
			RequesterID: requester.ID,
			GameID:      gameID,
		}
		if err := tx.CreateParticipation(pr); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("a pending participation request already exists")
			}
			return err
		}

		broker := notification.NewBroker(tx.Notifications())
		if err := broker.Notify(notification.TypeParticipationRequest, g.AdminID, &requester.UserID, &g.ID); err != nil {
			return err
		}

		created = pr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ResolveParticipation applies accept, decline or cancel to a pending
// participation request and reconciles the admin's notification:
//
//	cancel:  delete the PARTICIPATION_REQUEST notification if unread
//	decline: mark it read
//	accept:  add the requester to the roster, mark it read, and notify
//	          the requester they were added to the game
func (s *Service) ResolveParticipation(actorUserID uint, requestID uint, action request.Action) error {
	return s.repo.WithTransaction(func(tx Repository) error {
		pr, err := tx.GetParticipationByID(requestID)
		if err != nil {
			return err
		}
		if pr == nil {
			return apperr.NotFound("participation request")
		}

		actorIsRequester := pr.Requester.UserID == actorUserID
		actorIsAdmin := pr.Game.AdminID == actorUserID
		if !actorIsRequester && !actorIsAdmin {
			return apperr.PermissionDenied("you are not a party to this participation request")
		}

		if err := pr.Bilateral.Resolve(action, actorIsRequester, actorIsAdmin, time.Now()); err != nil {
			return err
		}
		if err := tx.UpdateParticipation(pr); err != nil {
			return err
		}

		broker := notification.NewBroker(tx.Notifications())
		originalNotif := notification.Filter{
			Type:        notification.TypeParticipationRequest,
			RecipientID: pr.Game.AdminID,
			SenderID:    &pr.Requester.UserID,
			GameID:      &pr.GameID,
		}

		switch action {
		case request.ActionCancel:
			return broker.DeleteIfUnread(originalNotif)
		case request.ActionDecline:
			return broker.ReconcileRead(originalNotif)
		case request.ActionAccept:
			if err := tx.AddMember(pr.GameID, pr.RequesterID); err != nil {
				return err
			}
			if !pr.Game.IsInTheFuture() {
				if err := tx.Players().IncrementGamesPlayed(pr.RequesterID); err != nil {
					return err
				}
			}
			if err := broker.ReconcileRead(originalNotif); err != nil {
				return err
			}
			return broker.Notify(notification.TypeAddedToGame, pr.Requester.UserID, nil, &pr.GameID)
		}
		return nil
	})
}

// GameLists groups the games visible on the games index for a viewer.
type GameLists struct {
	Administered []Game `json:"administered"`
	MemberOf     []Game `json:"member_of"`
	Public       []Game `json:"public"`
}

// ListForViewer returns the games index grouped by the viewer's
// relationship to each game.
func (s *Service) ListForViewer(viewerUserID uint) (*GameLists, error) {
	viewer, err := s.repo.Players().GetByUserID(viewerUserID)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, apperr.NotFound("player")
	}

	administered, err := s.repo.ListAdministered(viewerUserID)
	if err != nil {
		return nil, err
	}
	memberOf, err := s.repo.ListMemberOf(viewer.ID)
	if err != nil {
		return nil, err
	}
	public, err := s.repo.ListPublic()
	if err != nil {
		return nil, err
	}
	return &GameLists{Administered: administered, MemberOf: memberOf, Public: public}, nil
}

// Detail is the game read model for one viewer.
type Detail struct {
	Game              *Game
	IsAdmin           bool
	Participating     bool
	HasPendingRequest bool
}

// GetDetail returns a game with the viewer's relationship to it. The
// authorization evaluator runs per call; an unauthorized viewer gets
// PermissionDenied, never a filtered-down game.
func (s *Service) GetDetail(viewerUserID *uint, gameID string) (*Detail, error) {
	g, err := s.repo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperr.NotFound("game")
	}

	detail := &Detail{Game: g}

	var viewerIsMember bool
	if viewerUserID != nil {
		viewer, err := s.repo.Players().GetByUserID(*viewerUserID)
		if err != nil {
			return nil, err
		}
		if viewer != nil {
			viewerIsMember, err = s.repo.IsMember(gameID, viewer.ID)
			if err != nil {
				return nil, err
			}
			pending, err := s.repo.FindPendingParticipation(gameID, viewer.ID)
			if err != nil {
				return nil, err
			}
			detail.HasPendingRequest = pending != nil
		}
		detail.IsAdmin = *viewerUserID == g.AdminID
		detail.Participating = viewerIsMember || detail.IsAdmin
	}

	if !authz.CanViewGame(viewerUserID, g.AdminID, g.Private, viewerIsMember) {
		return nil, apperr.PermissionDenied("this game is private")
	}
	return detail, nil
}

// PendingRequests lists a game's pending participation requests for its
// admin.
func (s *Service) PendingRequests(actorUserID uint, gameID string) ([]ParticipationRequest, error) {
	g, err := s.repo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperr.NotFound("game")
	}
	if !authz.CanMutateGame(&actorUserID, g.AdminID) {
		return nil, apperr.PermissionDenied("only the game admin can review participation requests")
	}
	return s.repo.ListPendingParticipationForGame(gameID)
}

// VisibleGamesOfPlayer returns a profile's games as the viewer may see
// them, split into past and upcoming.
func (s *Service) VisibleGamesOfPlayer(profilePlayerID uint, viewerUserID *uint, viewerPlayerID *uint) (past, upcoming []Game, err error) {
	games, err := s.repo.ListOfPlayerVisible(profilePlayerID, viewerUserID, viewerPlayerID)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	for _, g := range games {
		if g.When.After(now) {
			upcoming = append(upcoming, g)
		} else {
			past = append(past, g)
		}
	}
	return past, upcoming, nil
}
