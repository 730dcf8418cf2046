package game

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DinisvCosta/game-planner/internal/middleware"
	"github.com/DinisvCosta/game-planner/internal/request"
	"github.com/DinisvCosta/game-planner/pkg/responses"
	"github.com/DinisvCosta/game-planner/pkg/validator"
)

// GameController handles game and participation-request HTTP requests.
type GameController struct {
	service *Service
}

func NewGameController(service *Service) *GameController {
	return &GameController{service: service}
}

type CreateGameInput struct {
	Name            string    `json:"name" binding:"required,min=1,max=30"`
	When            time.Time `json:"when" binding:"required"`
	Where           string    `json:"where" binding:"required,max=60"`
	Members         []string  `json:"members"`
	Price           int       `json:"price"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1"`
	Private         bool      `json:"private"`
}

// UpdateGameInput is a partial edit. Omitted, empty and zero values leave
// the field unchanged; private applies whenever the key is present.
type UpdateGameInput struct {
	Name            *string    `json:"name" binding:"omitempty,max=30"`
	When            *time.Time `json:"when"`
	Where           *string    `json:"where" binding:"omitempty,max=60"`
	Members         []string   `json:"members"`
	Price           *int       `json:"price"`
	DurationMinutes *int       `json:"duration_minutes"`
	Private         *bool      `json:"private"`
}

type MemberInput struct {
	Username string `json:"username" binding:"required,min=1,max=30"`
}

type ResolveParticipationInput struct {
	Action string `json:"action" binding:"required,oneof=accept decline cancel"`
}

type participationView struct {
	ID          uint      `json:"id"`
	Requester   string    `json:"requester"`
	GameID      string    `json:"game_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// @Summary Create a game
// @Tags games
// @Accept json
// @Produce json
// @Param input body CreateGameInput true "Game details"
// @Success 201 {object} responses.SuccessResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /games [post]
// @Security ApiKeyAuth
func (gc *GameController) CreateGame(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var input CreateGameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	g, err := gc.service.Create(userID, CreateInput{
		Name:            input.Name,
		When:            input.When,
		Where:           input.Where,
		MemberUsernames: input.Members,
		Price:           input.Price,
		Duration:        time.Duration(input.DurationMinutes) * time.Minute,
		Private:         input.Private,
	})
	if err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Game created", gin.H{"id": g.ID})
}

// @Summary List games visible to the current user
// @Tags games
// @Produce json
// @Success 200 {object} responses.SuccessResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /games [get]
// @Security ApiKeyAuth
func (gc *GameController) ListGames(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	lists, err := gc.service.ListForViewer(userID)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Games retrieved", lists)
}

// @Summary Get a game's detail
// @Tags games
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /games/{id} [get]
func (gc *GameController) GetGame(c *gin.Context) {
	viewerID := middleware.GetOptionalUserID(c)

	detail, err := gc.service.GetDetail(viewerID, c.Param("id"))
	if err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Game retrieved", gin.H{
		"game":                detail.Game.View(),
		"is_admin":            detail.IsAdmin,
		"participating":       detail.Participating,
		"has_pending_request": detail.HasPendingRequest,
	})
}

// @Summary Edit a game
// @Tags games
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param input body UpdateGameInput true "Fields to change"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /games/{id} [patch]
// @Security ApiKeyAuth
func (gc *GameController) UpdateGame(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var input UpdateGameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	update := UpdateInput{
		Name:            input.Name,
		When:            input.When,
		Where:           input.Where,
		MemberUsernames: input.Members,
		Price:           input.Price,
		Private:         input.Private,
	}
	if input.DurationMinutes != nil {
		d := time.Duration(*input.DurationMinutes) * time.Minute
		update.Duration = &d
	}

	if err := gc.service.Update(userID, c.Param("id"), update); err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Game updated", nil)
}

// @Summary Add a player to a game's roster
// @Tags games
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param input body MemberInput true "Player's username"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /games/{id}/members [post]
// @Security ApiKeyAuth
func (gc *GameController) AddMember(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var input MemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	if err := gc.service.AddMember(userID, c.Param("id"), input.Username); err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Player added to game", nil)
}

// @Summary Remove a player from a game's roster
// @Tags games
// @Produce json
// @Param id path string true "Game ID"
// @Param username path string true "Player's username"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /games/{id}/members/{username} [delete]
// @Security ApiKeyAuth
func (gc *GameController) RemoveMember(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	if err := gc.service.RemoveMember(userID, c.Param("id"), c.Param("username")); err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Player removed from game", nil)
}

// @Summary Request participation in a game
// @Tags games
// @Produce json
// @Param id path string true "Game ID"
// @Success 201 {object} responses.SuccessResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /games/{id}/participation-requests [post]
// @Security ApiKeyAuth
func (gc *GameController) RequestParticipation(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	pr, err := gc.service.RequestParticipation(userID, c.Param("id"))
	if err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Participation request sent", gin.H{"id": pr.ID})
}

// @Summary List a game's pending participation requests
// @Tags games
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Router /games/{id}/participation-requests [get]
// @Security ApiKeyAuth
func (gc *GameController) ListPendingParticipation(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	pending, err := gc.service.PendingRequests(userID, c.Param("id"))
	if err != nil {
		responses.FromError(c, err)
		return
	}

	views := make([]participationView, len(pending))
	for i := range pending {
		views[i] = participationView{
			ID:          pending[i].ID,
			Requester:   pending[i].Requester.Username(),
			GameID:      pending[i].GameID,
			RequestedAt: pending[i].RequestedAt,
		}
	}
	responses.SendSuccess(c, http.StatusOK, "Pending participation requests retrieved", views)
}

// @Summary Accept, decline or cancel a participation request
// @Tags games
// @Accept json
// @Produce json
// @Param id path int true "Participation request ID"
// @Param input body ResolveParticipationInput true "Action"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /participation-requests/{id}/resolve [post]
// @Security ApiKeyAuth
func (gc *GameController) ResolveParticipation(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid participation request ID")
		return
	}

	var input ResolveParticipationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	action, err := request.ParseAction(input.Action)
	if err != nil {
		responses.FromError(c, err)
		return
	}

	if err := gc.service.ResolveParticipation(userID, uint(requestID), action); err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Participation request resolved", nil)
}
