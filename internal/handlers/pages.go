package handlers

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskmanager/internal/constants"
	"github.com/yukikurage/taskmanager/internal/dto"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
	"github.com/yukikurage/taskmanager/internal/middleware"
	"github.com/yukikurage/taskmanager/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// PageHandler renders the server-side pages
type PageHandler struct {
	authService *services.AuthService
	taskService *services.TaskService
	log         *slog.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(authService *services.AuthService, taskService *services.TaskService, log *slog.Logger) *PageHandler {
	return &PageHandler{
		authService: authService,
		taskService: taskService,
		log:         log,
	}
}

// Home shows the task table of the signed-in user
func (h *PageHandler) Home(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	ctx := c.Request.Context()

	user, err := h.authService.GetUser(ctx, userID)
	if err != nil {
		if apierrors.IsKind(err, apierrors.KindNotFound) {
			// The account behind this session no longer exists.
			h.logSessionError(c, "end session", endSession(c))
			c.Redirect(http.StatusFound, "/login")
			return
		}
		h.render(c, http.StatusInternalServerError, "home.html", gin.H{"Title": "Tasks", "Errors": []string{err.Error()}})
		return
	}

	tasks, err := h.taskService.ListTasks(ctx, userID)
	if err != nil {
		h.render(c, http.StatusInternalServerError, "home.html", gin.H{"Title": "Tasks", "Username": user.Username, "Errors": []string{err.Error()}})
		return
	}

	h.render(c, http.StatusOK, "home.html", gin.H{
		"Title":    "Tasks",
		"Username": user.Username,
		"Tasks":    dto.ToTaskDTOs(tasks),
	})
}

// LoginPage shows the login form
func (h *PageHandler) LoginPage(c *gin.Context) {
	if _, ok := sessionUserID(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in", "Form": dto.LoginForm{}})
}

// Login handles the login form
func (h *PageHandler) Login(c *gin.Context) {
	var form dto.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "login.html", gin.H{
			"Title":  "Log in",
			"Form":   form,
			"Errors": []string{"Username and password are required."},
		})
		return
	}

	user, err := h.authService.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		status, message := http.StatusUnauthorized, "Invalid username or password."
		if apierrors.KindOf(err) == apierrors.KindStorage {
			status, message = http.StatusInternalServerError, "Login is temporarily unavailable, please try again."
		}
		h.render(c, status, "login.html", gin.H{
			"Title":  "Log in",
			"Form":   dto.LoginForm{Username: form.Username},
			"Errors": []string{message},
		})
		return
	}

	if err := startSession(c, user.ID); err != nil {
		h.render(c, http.StatusInternalServerError, "login.html", gin.H{
			"Title":  "Log in",
			"Form":   dto.LoginForm{Username: form.Username},
			"Errors": []string{"Could not start your session, please try again."},
		})
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// RegisterPage shows the registration form
func (h *PageHandler) RegisterPage(c *gin.Context) {
	if _, ok := sessionUserID(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render(c, http.StatusOK, "register.html", gin.H{"Title": "Register", "Form": dto.RegistrationForm{}})
}

// Register handles the registration form
func (h *PageHandler) Register(c *gin.Context) {
	var form dto.RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderRegister(c, http.StatusBadRequest, form, []string{"Invalid form submission."})
		return
	}

	ctx := c.Request.Context()
	if ok, messages := h.authService.ValidateRegistrationForm(ctx, form); !ok {
		h.renderRegister(c, http.StatusBadRequest, form, messages)
		return
	}

	if _, err := h.authService.Register(ctx, form.Email, form.Username, form.Password); err != nil {
		h.renderRegister(c, apierrors.StatusCode(apierrors.KindOf(err)), form, []string{err.Error()})
		return
	}

	session := sessions.Default(c)
	session.AddFlash("Account created, you can now log in.")
	h.logSessionError(c, "save flash", session.Save())

	c.Redirect(http.StatusFound, "/login")
}

// Logout clears the session and returns to the login page
func (h *PageHandler) Logout(c *gin.Context) {
	h.logSessionError(c, "end session", endSession(c))
	c.Redirect(http.StatusFound, "/login")
}

func (h *PageHandler) renderRegister(c *gin.Context, status int, form dto.RegistrationForm, errs []string) {
	// Never echo passwords back into the page.
	form.Password = ""
	form.ConfirmPassword = ""
	h.render(c, status, "register.html", gin.H{"Title": "Register", "Form": form, "Errors": errs})
}

// render adds pending flash messages to data and renders the template
func (h *PageHandler) render(c *gin.Context, status int, name string, data gin.H) {
	session := sessions.Default(c)
	if flashes := session.Flashes(); len(flashes) > 0 {
		data["Flashes"] = flashes
		h.logSessionError(c, "consume flashes", session.Save())
	}
	c.HTML(status, name, data)
}

// logSessionError records a failed session write. The page still renders.
func (h *PageHandler) logSessionError(c *gin.Context, op string, err error) {
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "session store failure", "op", op, "error", err)
	}
}

// sessionUserID reads the user id straight from the session, for pages that
// do not sit behind RequirePageAuth
func sessionUserID(c *gin.Context) (uint64, bool) {
	if v := sessions.Default(c).Get(constants.ContextKeyUserID); v != nil {
		if id, ok := v.(uint64); ok && id != 0 {
			return id, true
		}
	}
	return 0, false
}
