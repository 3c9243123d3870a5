package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskmanager/internal/dto"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
	"github.com/yukikurage/taskmanager/internal/middleware"
	"github.com/yukikurage/taskmanager/internal/services"
)

const deadlineDisplayLayout = "2006-01-02 15:04:05"

// TaskHandler serves the /terminal JSON API
type TaskHandler struct {
	taskService *services.TaskService
	aiService   *services.AIService
}

// NewTaskHandler creates a new TaskHandler. aiService may be nil, in which
// case suggestions answer 503.
func NewTaskHandler(taskService *services.TaskService, aiService *services.AIService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		aiService:   aiService,
	}
}

// AddTask creates a task for the current user
func (h *TaskHandler) AddTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var payload dto.AddTaskPayload
	if !bindJSON(c, &payload) {
		return
	}

	req, err := dto.NewAddTaskRequest(payload)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	taskID, err := h.taskService.AddTask(c.Request.Context(), req, userID, dto.TaskIDPtr(payload.ParentID))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	respondSuccess(c, fmt.Sprintf("Task %d '%s' with importance %d and deadline %s has been added.",
		taskID, req.Title(), req.Importance(), req.Deadline().Format(deadlineDisplayLayout)))
}

// ListTasks returns every task of the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	if len(tasks) == 0 {
		apierrors.Respond(c, apierrors.New(apierrors.KindNotFound, "No tasks found"))
		return
	}

	respondSuccess(c, dto.ToTaskDTOs(tasks))
}

// ViewTask returns one task selected by id or title
func (h *TaskHandler) ViewTask(c *gin.Context) {
	userID, taskID, ok := h.resolve(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), userID, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	respondSuccess(c, dto.ToTaskDTO(*task))
}

// DeleteTask removes one task selected by id or title
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, taskID, ok := h.resolve(c)
	if !ok {
		return
	}

	title, err := h.taskService.DeleteTask(c.Request.Context(), userID, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	respondSuccess(c, fmt.Sprintf("Task '%s' has been deleted.", title))
}

// EditTask overwrites the editable fields of a task
func (h *TaskHandler) EditTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var payload dto.EditTaskPayload
	if !bindJSON(c, &payload) {
		return
	}

	req, err := dto.NewEditTaskRequest(payload)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	if err := h.taskService.EditTask(c.Request.Context(), userID, req); err != nil {
		apierrors.Respond(c, err)
		return
	}

	respondSuccess(c, fmt.Sprintf("Task %d has been updated.", req.TaskID()))
}

// SetParent moves a task under another task, or detaches it
func (h *TaskHandler) SetParent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var payload dto.SetParentPayload
	if !bindJSON(c, &payload) {
		return
	}
	if err := dto.ValidatePayload(payload); err != nil {
		apierrors.Respond(c, err)
		return
	}

	taskID := payload.TaskID.Uint64()
	parentID := dto.TaskIDPtr(payload.ParentID)
	if err := h.taskService.SetParent(c.Request.Context(), userID, taskID, parentID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	if parentID == nil {
		respondSuccess(c, fmt.Sprintf("Task %d has been detached from its parent.", taskID))
		return
	}
	respondSuccess(c, fmt.Sprintf("Task %d is now a subtask of task %d.", taskID, *parentID))
}

// SuggestTasks proposes tasks found in free text. Nothing is stored.
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var payload dto.SuggestPayload
	if !bindJSON(c, &payload) {
		return
	}
	if err := dto.ValidatePayload(payload); err != nil {
		apierrors.Respond(c, err)
		return
	}

	suggestions, err := h.aiService.SuggestTasks(c.Request.Context(), payload.Text)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	respondSuccess(c, suggestions)
}

// resolve reads a selector body and turns it into the current user's task id
func (h *TaskHandler) resolve(c *gin.Context) (userID, taskID uint64, ok bool) {
	userID, ok = currentUser(c)
	if !ok {
		return 0, 0, false
	}

	var payload dto.SelectorPayload
	if !bindJSON(c, &payload) {
		return 0, 0, false
	}

	selector, err := dto.NewTaskSelector(payload)
	if err != nil {
		apierrors.Respond(c, err)
		return 0, 0, false
	}

	taskID, err = h.taskService.ResolveSelector(c.Request.Context(), userID, selector)
	if err != nil {
		apierrors.Respond(c, err)
		return 0, 0, false
	}
	return userID, taskID, true
}

// currentUser reads the authenticated user id, answering 401 when absent
func currentUser(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}
