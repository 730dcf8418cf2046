package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DinisvCosta/game-planner/config"
	"github.com/DinisvCosta/game-planner/internal/middleware"
	"github.com/DinisvCosta/game-planner/pkg/responses"
	"github.com/DinisvCosta/game-planner/pkg/token"
	"github.com/DinisvCosta/game-planner/pkg/validator"
	"github.com/DinisvCosta/game-planner/utils"

	"github.com/DinisvCosta/game-planner/internal/user"
)

type AuthController struct {
	repo   AuthRepository
	config *config.Config
}

func NewAuthController(repo AuthRepository, cfg *config.Config) *AuthController {
	return &AuthController{repo: repo, config: cfg}
}

// Refresh tokens are stateless: signed with their own secret and expiry,
// never stored. Rotating JWT_REFRESH_TOKEN_SECRET revokes them all.
func (ac *AuthController) generateTokens(userID uint) (string, string, error) {
	accessExpiry := time.Duration(ac.config.JWT.AccessTokenExpiryMinutes) * time.Minute
	accessToken, err := token.GenerateJWT(userID, ac.config.JWT.AccessTokenSecret, accessExpiry)
	if err != nil {
		return "", "", fmt.Errorf("access token generation failed: %w", err)
	}

	refreshExpiry := time.Duration(ac.config.JWT.RefreshTokenExpiryDays) * 24 * time.Hour
	refreshToken, err := token.GenerateJWT(userID, ac.config.JWT.RefreshTokenSecret, refreshExpiry)
	if err != nil {
		return "", "", fmt.Errorf("refresh token generation failed: %w", err)
	}
	return accessToken, refreshToken, nil
}

// @Summary Register a new account
// @Description Creates the user and its player identity.
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	existing, err := ac.repo.GetUserByUsername(req.Username)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if existing != nil {
		responses.SendError(c, http.StatusConflict, "A user with this username already exists")
		return
	}
	if req.Email != "" {
		existing, err = ac.repo.GetUserByEmail(req.Email)
		if err != nil {
			responses.InternalServerError(c, "")
			return
		}
		if existing != nil {
			responses.SendError(c, http.StatusConflict, "A user with this email already exists")
			return
		}
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	u := &user.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := ac.repo.CreateUserWithPlayer(u); err != nil {
		responses.FromError(c, err)
		return
	}

	accessToken, refreshToken, err := ac.generateTokens(u.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         FilterUserRecord(u),
	})
}

// @Summary Log in
// @Description Accepts a username or an email as the login identifier.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	var u *user.User
	var err error
	if strings.Contains(req.LoginIdentifier, "@") {
		u, err = ac.repo.GetUserByEmail(req.LoginIdentifier)
	} else {
		u, err = ac.repo.GetUserByUsername(req.LoginIdentifier)
	}
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if u == nil || !utils.CheckPassword(u.Password, req.Password) {
		responses.Unauthorized(c, "Invalid credentials")
		return
	}

	accessToken, refreshToken, err := ac.generateTokens(u.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         FilterUserRecord(u),
	})
}

// @Summary Refresh the token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param input body RefreshTokenRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /auth/refresh-token [post]
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	claims, err := token.ValidateJWT(req.RefreshToken, ac.config.JWT.RefreshTokenSecret)
	if err != nil {
		responses.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	u, err := ac.repo.GetUserByID(claims.UserID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if u == nil {
		responses.Unauthorized(c, "User no longer exists")
		return
	}

	accessToken, refreshToken, err := ac.generateTokens(u.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         FilterUserRecord(u),
	})
}

// @Summary Get the current user
// @Tags auth
// @Produce json
// @Success 200 {object} responses.SuccessResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /auth/me [get]
// @Security ApiKeyAuth
func (ac *AuthController) GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	u, err := ac.repo.GetUserByID(userID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if u == nil {
		responses.NotFound(c, "User")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Profile retrieved", FilterUserRecord(u))
}

// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Param input body ChangePasswordRequest true "Old and new passwords"
// @Success 200 {object} responses.SuccessResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /auth/change-password [post]
// @Security ApiKeyAuth
func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": validator.ParseError(err)})
		return
	}

	u, err := ac.repo.GetUserByID(userID)
	if err != nil || u == nil {
		responses.InternalServerError(c, "")
		return
	}
	if !utils.CheckPassword(u.Password, req.OldPassword) {
		responses.Unauthorized(c, "Old password is incorrect")
		return
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	u.Password = hashed
	if err := ac.repo.UpdateUser(u); err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Password changed", nil)
}
