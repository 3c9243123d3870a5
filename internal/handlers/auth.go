package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskmanager/internal/constants"
	"github.com/yukikurage/taskmanager/internal/dto"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
	"github.com/yukikurage/taskmanager/internal/services"
)

// AuthHandler coordinates the JSON authentication endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	var form dto.RegistrationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if ok, messages := h.authService.ValidateRegistrationForm(c.Request.Context(), form); !ok {
		apierrors.Respond(c, apierrors.NewWithDetails(apierrors.KindValidation, "Invalid registration", messages))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), form.Email, form.Username, form.Password)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	var form dto.LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	if err := startSession(c, user.ID); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := endSession(c); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	respondSuccess(c, "Logged out successfully")
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func startSession(c *gin.Context, userID uint64) error {
	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, userID)
	return session.Save()
}

func endSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}
