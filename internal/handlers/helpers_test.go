package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskmanager/internal/database"
	"github.com/yukikurage/taskmanager/internal/logging"
	"github.com/yukikurage/taskmanager/internal/repository"
	"github.com/yukikurage/taskmanager/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	authService *services.AuthService
	taskService *services.TaskService
}

func setupTestEnv(t *testing.T, aiService *services.AIService) testEnv {
	t.Helper()
	return setupTestEnvWith(t, aiService, cookie.NewStore([]byte("secret")), logging.Discard())
}

// setupTestEnvWith builds the router on the given session store and logger
func setupTestEnvWith(t *testing.T, aiService *services.AIService, store sessions.Store, log *slog.Logger) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db, log))

	authService := services.NewAuthService(repository.NewUserRepository(db), log)
	taskService := services.NewTaskService(repository.NewTaskRepository(db), log)

	r := gin.New()
	Register(r, Deps{
		Log:          log,
		SessionStore: store,
		AuthService:  authService,
		TaskService:  taskService,
		AIService:    aiService,
	})

	return testEnv{
		db:          db,
		router:      r,
		authService: authService,
		taskService: taskService,
	}
}

// client replays the session cookie between requests like a browser would
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, router *gin.Engine) *client {
	return &client{t: t, router: router, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postJSON(path string, payload any) *httptest.ResponseRecorder {
	var body io.Reader = http.NoBody
	switch p := payload.(type) {
	case nil:
	case string:
		body = strings.NewReader(p)
	default:
		raw, err := json.Marshal(p)
		require.NoError(c.t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// loggedInClient registers a user through the service and logs in over HTTP
func (env testEnv) loggedInClient(t *testing.T, username string) *client {
	t.Helper()

	_, err := env.authService.Register(context.Background(), username+"@example.com", username, "supersecret")
	require.NoError(t, err)

	c := newClient(t, env.router)
	w := c.postJSON("/api/auth/login", map[string]string{"username": username, "password": "supersecret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return c
}

type envelope struct {
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details []string        `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
