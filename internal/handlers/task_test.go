package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskmanager/internal/dto"
)

// TaskHandlerTestSuite exercises the /terminal API through the full router
type TaskHandlerTestSuite struct {
	suite.Suite
	env    testEnv
	client *client
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.env = setupTestEnv(suite.T(), nil)
	suite.client = suite.env.loggedInClient(suite.T(), "terminal-user")
}

func (suite *TaskHandlerTestSuite) addTask(title string) {
	w := suite.client.postJSON("/terminal/add", map[string]any{
		"title":      title,
		"importance": 3,
		"deadline":   "2030-01-01",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (suite *TaskHandlerTestSuite) listTasks() []dto.TaskDTO {
	w := suite.client.postJSON("/terminal/list", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var tasks []dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(decode(suite.T(), w).Result, &tasks))
	return tasks
}

func (suite *TaskHandlerTestSuite) TestUnauthenticatedIsRejected() {
	anonymous := newClient(suite.T(), suite.env.router)

	for _, path := range []string{"/terminal/add", "/terminal/list", "/terminal/view", "/terminal/delete", "/terminal/edit"} {
		w := anonymous.postJSON(path, map[string]any{})
		suite.Equal(http.StatusUnauthorized, w.Code, path)
		suite.Equal("error", decode(suite.T(), w).Status, path)
	}
}

func (suite *TaskHandlerTestSuite) TestAddTask() {
	w := suite.client.postJSON("/terminal/add", map[string]any{
		"title":         "Write report",
		"importance":    5,
		"deadline":      "2030-04-01T12:00:00Z",
		"est_time_days": 2,
		"description":   "quarterly numbers",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	body := decode(suite.T(), w)
	suite.Equal("success", body.Status)
	var message string
	suite.Require().NoError(json.Unmarshal(body.Result, &message))
	suite.Equal("Task 1 'Write report' with importance 5 and deadline 2030-04-01 12:00:00 has been added.", message)
}

func (suite *TaskHandlerTestSuite) TestAddTask_Invalid() {
	w := suite.client.postJSON("/terminal/add", map[string]any{
		"importance": -1,
		"deadline":   "soon",
	})
	suite.Require().Equal(http.StatusBadRequest, w.Code)

	body := decode(suite.T(), w)
	suite.Equal("VALIDATION_FAILED", body.Code)
	suite.Contains(body.Details, "title is required")
	suite.Contains(body.Details, "importance must be at least 0")

	w = suite.client.postJSON("/terminal/add", "{not json")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestAddTask_UnknownParent() {
	w := suite.client.postJSON("/terminal/add", map[string]any{
		"title":      "child",
		"importance": 1,
		"deadline":   "2030-01-01",
		"parent_id":  404,
	})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestAddTask_ZeroParentIsTypeMismatch() {
	w := suite.client.postJSON("/terminal/add", map[string]any{
		"title":      "child",
		"importance": 1,
		"deadline":   "2030-01-01",
		"parent_id":  0,
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("TYPE_MISMATCH", decode(suite.T(), w).Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks() {
	w := suite.client.postJSON("/terminal/list", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	suite.addTask("first")
	suite.addTask("second")

	other := suite.env.loggedInClient(suite.T(), "someone-else")
	w = other.postJSON("/terminal/add", map[string]any{"title": "hidden", "importance": 1, "deadline": "2030-01-01"})
	suite.Require().Equal(http.StatusOK, w.Code)

	tasks := suite.listTasks()
	suite.Require().Len(tasks, 2)
	suite.ElementsMatch([]string{"first", "second"}, []string{tasks[0].Title, tasks[1].Title})

	w = suite.client.postJSON("/terminal/list", nil)
	suite.NotContains(w.Body.String(), "user_id")
	suite.NotContains(w.Body.String(), "parent_task_id")
}

func (suite *TaskHandlerTestSuite) TestViewTask() {
	suite.addTask("groceries")
	id := suite.listTasks()[0].ID

	for _, selector := range []map[string]any{
		{"task_id": id},
		{"task_id": "1"},
		{"title": "groceries"},
	} {
		w := suite.client.postJSON("/terminal/view", selector)
		suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		var task dto.TaskDTO
		suite.Require().NoError(json.Unmarshal(decode(suite.T(), w).Result, &task))
		suite.Equal("groceries", task.Title)
	}

	w := suite.client.postJSON("/terminal/view", map[string]any{"task_id": "abc"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("TYPE_MISMATCH", decode(suite.T(), w).Code)

	w = suite.client.postJSON("/terminal/view", map[string]any{"task_id": "1", "title": "groceries"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.client.postJSON("/terminal/view", map[string]any{})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.client.postJSON("/terminal/view", map[string]any{"task_id": "99"})
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.client.postJSON("/terminal/view", map[string]any{"title": "unknown"})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	suite.addTask("keep")
	suite.addTask("drop")

	w := suite.client.postJSON("/terminal/delete", map[string]any{"title": "drop"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var message string
	suite.Require().NoError(json.Unmarshal(decode(suite.T(), w).Result, &message))
	suite.Equal("Task 'drop' has been deleted.", message)

	tasks := suite.listTasks()
	suite.Require().Len(tasks, 1)
	suite.Equal("keep", tasks[0].Title)

	w = suite.client.postJSON("/terminal/delete", map[string]any{"title": "drop"})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestEditTask() {
	suite.addTask("before")
	id := suite.listTasks()[0].ID

	w := suite.client.postJSON("/terminal/edit", map[string]any{
		"task_id":     id,
		"title":       "after",
		"importance":  8,
		"deadline":    "2031-01-01 09:30:00",
		"description": "now with details",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	tasks := suite.listTasks()
	suite.Equal("after", tasks[0].Title)
	suite.Equal(8, tasks[0].Importance)
	suite.Require().NotNil(tasks[0].Description)
	suite.Equal("now with details", *tasks[0].Description)

	w = suite.client.postJSON("/terminal/edit", map[string]any{
		"task_id":    999,
		"title":      "ghost",
		"importance": 1,
		"deadline":   "2031-01-01",
	})
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.client.postJSON("/terminal/edit", map[string]any{"title": "no id", "importance": 1, "deadline": "2031-01-01"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestSetParent() {
	suite.addTask("parent")
	suite.addTask("child")
	tasks := suite.listTasks()
	parent, child := tasks[0].ID, tasks[1].ID

	w := suite.client.postJSON("/terminal/parent", map[string]any{"task_id": child, "parent_id": parent})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.client.postJSON("/terminal/parent", map[string]any{"task_id": parent, "parent_id": child})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_FAILED", decode(suite.T(), w).Code)

	w = suite.client.postJSON("/terminal/parent", map[string]any{"task_id": child, "parent_id": nil})
	suite.Equal(http.StatusOK, w.Code)

	w = suite.client.postJSON("/terminal/parent", map[string]any{"parent_id": parent})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestSuggestTasks_NotConfigured() {
	w := suite.client.postJSON("/terminal/suggest", map[string]any{"text": "plan the move"})
	suite.Equal(http.StatusServiceUnavailable, w.Code)

	w = suite.client.postJSON("/terminal/suggest", map[string]any{})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestHealth() {
	w := suite.client.get("/health")
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"status":"ok"}`, w.Body.String())
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
