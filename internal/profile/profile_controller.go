package profile

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DinisvCosta/game-planner/internal/friendship"
	"github.com/DinisvCosta/game-planner/internal/game"
	"github.com/DinisvCosta/game-planner/internal/middleware"
	"github.com/DinisvCosta/game-planner/internal/player"
	"github.com/DinisvCosta/game-planner/pkg/responses"
)

// ProfileController serves player listings and player profile pages. It
// composes the player store with the friendship and game services so a
// profile can say how the viewer relates to its owner.
type ProfileController struct {
	players     player.Repository
	friendships *friendship.Service
	games       *game.Service
}

func NewProfileController(players player.Repository, friendships *friendship.Service, games *game.Service) *ProfileController {
	return &ProfileController{players: players, friendships: friendships, games: games}
}

type gameSummary struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	When time.Time `json:"when"`
}

// ProfileView is a player profile page as one viewer sees it.
type ProfileView struct {
	Username        string        `json:"username"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	GamesPlayed     int           `json:"games_played"`
	IsSelf          bool          `json:"is_self"`
	AreFriends      bool          `json:"are_friends"`
	IncomingPending bool          `json:"incoming_pending"`
	OutgoingPending bool          `json:"outgoing_pending"`
	PendingID       *uint         `json:"pending_id,omitempty"`
	Friends         []string      `json:"friends"`
	PastGames       []gameSummary `json:"past_games"`
	UpcomingGames   []gameSummary `json:"upcoming_games"`
}

// @Summary List players
// @Description Lists every player except the caller.
// @Tags players
// @Produce json
// @Success 200 {object} responses.SuccessResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /players [get]
// @Security ApiKeyAuth
func (pc *ProfileController) ListPlayers(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	players, err := pc.players.List(&userID)
	if err != nil {
		responses.FromError(c, err)
		return
	}

	summaries := make([]player.Summary, len(players))
	for i := range players {
		summaries[i] = players[i].Summary()
	}
	responses.SendSuccess(c, http.StatusOK, "Players retrieved", summaries)
}

// @Summary Get a player's profile
// @Description Anonymous viewers get the profile with only public games.
// @Tags players
// @Produce json
// @Param username path string true "Player's username"
// @Success 200 {object} responses.SuccessResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /players/{username} [get]
func (pc *ProfileController) GetProfile(c *gin.Context) {
	viewerUserID := middleware.GetOptionalUserID(c)

	p, err := pc.players.GetByUsername(c.Param("username"))
	if err != nil {
		responses.FromError(c, err)
		return
	}
	if p == nil {
		responses.NotFound(c, "Player")
		return
	}

	view := ProfileView{
		Username:    p.Username(),
		FirstName:   p.User.FirstName,
		LastName:    p.User.LastName,
		GamesPlayed: p.GamesPlayed,
		Friends:     []string{},
	}

	var viewerPlayerID *uint
	if viewerUserID != nil {
		viewer, err := pc.players.GetByUserID(*viewerUserID)
		if err != nil {
			responses.FromError(c, err)
			return
		}
		if viewer != nil {
			viewerPlayerID = &viewer.ID
			view.IsSelf = viewer.ID == p.ID

			if !view.IsSelf {
				view.AreFriends, err = pc.players.AreFriends(viewer.ID, p.ID)
				if err != nil {
					responses.FromError(c, err)
					return
				}

				pending, err := pc.friendships.PendingBetween(viewer.ID, p.ID)
				if err != nil {
					responses.FromError(c, err)
					return
				}
				if pending != nil {
					id := pending.ID
					view.PendingID = &id
					view.OutgoingPending = pending.RequesterID == viewer.ID
					view.IncomingPending = !view.OutgoingPending
				}
			}
		}
	}

	friends, err := pc.players.FriendsOf(p.ID)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	for i := range friends {
		view.Friends = append(view.Friends, friends[i].Username())
	}

	past, upcoming, err := pc.games.VisibleGamesOfPlayer(p.ID, viewerUserID, viewerPlayerID)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	view.PastGames = make([]gameSummary, len(past))
	for i, g := range past {
		view.PastGames[i] = gameSummary{ID: g.ID, Name: g.Name, When: g.When}
	}
	view.UpcomingGames = make([]gameSummary, len(upcoming))
	for i, g := range upcoming {
		view.UpcomingGames[i] = gameSummary{ID: g.ID, Name: g.Name, When: g.When}
	}

	responses.SendSuccess(c, http.StatusOK, "Profile retrieved", view)
}
