package friendship

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DinisvCosta/game-planner/internal/middleware"
	"github.com/DinisvCosta/game-planner/internal/player"
	"github.com/DinisvCosta/game-planner/internal/request"
	"github.com/DinisvCosta/game-planner/pkg/responses"
	"github.com/DinisvCosta/game-planner/pkg/validator"
)

// FriendshipController handles friend and friend-request HTTP requests.
type FriendshipController struct {
	service *Service
}

func NewFriendshipController(service *Service) *FriendshipController {
	return &FriendshipController{service: service}
}

type SendRequestInput struct {
	Username string `json:"username" binding:"required,min=1,max=30"`
}

type ResolveRequestInput struct {
	Action string `json:"action" binding:"required,oneof=accept decline cancel"`
}

// @Summary List current friends
// @Tags friends
// @Produce json
// @Success 200 {object} responses.SuccessResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /friends [get]
// @Security ApiKeyAuth
func (fc *FriendshipController) ListFriends(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	friends, err := fc.service.Friends(userID)
	if err != nil {
		responses.FromError(c, err)
		return
	}

	summaries := make([]player.Summary, len(friends))
	for i := range friends {
		summaries[i] = friends[i].Summary()
	}
	responses.SendSuccess(c, http.StatusOK, "Friends retrieved", summaries)
}

// @Summary Remove a friend
// @Tags friends
// @Produce json
// @Param username path string true "Friend's username"
// @Success 200 {object} responses.SuccessResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /friends/{username} [delete]
// @Security ApiKeyAuth
func (fc *FriendshipController) RemoveFriend(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	if err := fc.service.RemoveFriend(userID, c.Param("username")); err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Friend removed", nil)
}

// @Summary List pending friend requests received
// @Tags friends
// @Produce json
// @Success 200 {object} responses.SuccessResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /friend-requests [get]
// @Security ApiKeyAuth
func (fc *FriendshipController) ListPending(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	pending, err := fc.service.ListPendingReceived(userID)
	if err != nil {
		responses.FromError(c, err)
		return
	}

	views := make([]View, len(pending))
	for i := range pending {
		views[i] = pending[i].View()
	}
	responses.SendSuccess(c, http.StatusOK, "Pending friend requests retrieved", views)
}

// @Summary Send a friend request
// @Tags friends
// @Accept json
// @Produce json
// @Param input body SendRequestInput true "Requestee username"
// @Success 201 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /friend-requests [post]
// @Security ApiKeyAuth
func (fc *FriendshipController) SendRequest(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var input SendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	fr, err := fc.service.SendRequest(userID, input.Username)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Friend request sent", gin.H{"id": fr.ID})
}

// @Summary Accept, decline or cancel a friend request
// @Tags friends
// @Accept json
// @Produce json
// @Param id path int true "Friend request ID"
// @Param input body ResolveRequestInput true "Action"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /friend-requests/{id}/resolve [post]
// @Security ApiKeyAuth
func (fc *FriendshipController) ResolveRequest(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid friend request ID")
		return
	}

	var input ResolveRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	action, err := request.ParseAction(input.Action)
	if err != nil {
		responses.FromError(c, err)
		return
	}

	if err := fc.service.Resolve(userID, uint(requestID), action); err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Friend request resolved", nil)
}
