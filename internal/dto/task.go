package dto

import (
	"fmt"
	"time"

	"github.com/yukikurage/taskmanager/internal/constants"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
	"github.com/yukikurage/taskmanager/internal/models"
)

// TaskFieldsPayload is the untrusted body shared by add and edit requests.
// Pointers distinguish an absent field from a zero value.
type TaskFieldsPayload struct {
	Title       *string `json:"title" validate:"required,min=1,max=100"`
	Importance  *int    `json:"importance" validate:"required,min=0"`
	Deadline    *string `json:"deadline" validate:"required,deadline"`
	EstTimeDays *int    `json:"est_time_days" validate:"omitempty,min=0"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// AddTaskPayload is the body of /terminal/add
type AddTaskPayload struct {
	TaskFieldsPayload
	ParentID *TaskID `json:"parent_id"`
}

// EditTaskPayload is the body of /terminal/edit
type EditTaskPayload struct {
	TaskID *TaskID `json:"task_id" validate:"required"`
	TaskFieldsPayload
}

// SelectorPayload is the body of /terminal/view and /terminal/delete
type SelectorPayload struct {
	TaskID *TaskID `json:"task_id"`
	Title  string  `json:"title"`
}

// SetParentPayload is the body of /terminal/parent. A null parent_id detaches the task.
type SetParentPayload struct {
	TaskID   *TaskID `json:"task_id" validate:"required"`
	ParentID *TaskID `json:"parent_id"`
}

// SuggestPayload is the body of /terminal/suggest
type SuggestPayload struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// taskFields holds the validated editable fields. Every setter re-validates
// its own field and leaves the current value in place on failure.
type taskFields struct {
	title       string
	importance  int
	deadline    time.Time
	estTimeDays *int
	description *string
}

func newTaskFields(p TaskFieldsPayload) taskFields {
	// Only called after ValidatePayload, so required pointers are set and the deadline parses.
	deadline, _ := ParseDeadline(*p.Deadline)
	return taskFields{
		title:       *p.Title,
		importance:  *p.Importance,
		deadline:    deadline,
		estTimeDays: p.EstTimeDays,
		description: p.Description,
	}
}

func (f *taskFields) Title() string { return f.title }
func (f *taskFields) Importance() int { return f.importance }
func (f *taskFields) Deadline() time.Time { return f.deadline }
func (f *taskFields) EstTimeDays() *int { return f.estTimeDays }
func (f *taskFields) Description() *string { return f.description }

// SetTitle replaces the title
func (f *taskFields) SetTitle(title string) error {
	if err := checkVar("title", title, fmt.Sprintf("required,max=%d", constants.MaxTitleLength)); err != nil {
		return err
	}
	f.title = title
	return nil
}

// SetImportance replaces the importance
func (f *taskFields) SetImportance(importance int) error {
	if err := checkVar("importance", importance, "min=0"); err != nil {
		return err
	}
	f.importance = importance
	return nil
}

// SetDeadline replaces the deadline
func (f *taskFields) SetDeadline(deadline time.Time) error {
	if deadline.IsZero() {
		return apierrors.NewWithDetails(apierrors.KindValidation, "invalid deadline", []string{"deadline is required"})
	}
	f.deadline = deadline.UTC()
	return nil
}

// SetEstTimeDays replaces the estimate; nil clears it
func (f *taskFields) SetEstTimeDays(days *int) error {
	if days != nil {
		if err := checkVar("est_time_days", *days, "min=0"); err != nil {
			return err
		}
	}
	f.estTimeDays = days
	return nil
}

// SetDescription replaces the description; nil clears it
func (f *taskFields) SetDescription(description *string) error {
	if description != nil {
		if err := checkVar("description", *description, fmt.Sprintf("max=%d", constants.MaxDescriptionLength)); err != nil {
			return err
		}
	}
	f.description = description
	return nil
}

// AddTaskRequest is a validated task creation request. The zero value is not
// valid; build it with NewAddTaskRequest.
type AddTaskRequest struct {
	taskFields
	validated bool
}

// NewAddTaskRequest validates the payload and builds a request from it.
func NewAddTaskRequest(p AddTaskPayload) (*AddTaskRequest, error) {
	if err := ValidatePayload(p); err != nil {
		return nil, err
	}
	return &AddTaskRequest{taskFields: newTaskFields(p.TaskFieldsPayload), validated: true}, nil
}

// Valid reports whether r was produced by NewAddTaskRequest.
func (r *AddTaskRequest) Valid() bool {
	return r != nil && r.validated
}

// EditTaskRequest is a validated full overwrite of a task's editable fields.
// Absent optional fields clear the stored value.
type EditTaskRequest struct {
	taskFields
	taskID    uint64
	validated bool
}

// NewEditTaskRequest validates the payload and builds a request from it.
func NewEditTaskRequest(p EditTaskPayload) (*EditTaskRequest, error) {
	if err := ValidatePayload(p); err != nil {
		return nil, err
	}
	return &EditTaskRequest{
		taskFields: newTaskFields(p.TaskFieldsPayload),
		taskID:     p.TaskID.Uint64(),
		validated:  true,
	}, nil
}

// TaskID returns the id of the task being edited
func (r *EditTaskRequest) TaskID() uint64 {
	return r.taskID
}

// Valid reports whether r was produced by NewEditTaskRequest.
func (r *EditTaskRequest) Valid() bool {
	return r != nil && r.validated
}

// TaskSelector names a task by exactly one of its id or its title.
type TaskSelector struct {
	taskID    *uint64
	title     string
	validated bool
}

// NewTaskSelector enforces that exactly one of task_id and title is given.
// An empty title counts as absent.
func NewTaskSelector(p SelectorPayload) (*TaskSelector, error) {
	hasID := p.TaskID != nil
	hasTitle := p.Title != ""

	switch {
	case hasID && hasTitle:
		return nil, apierrors.New(apierrors.KindValidation, "provide either task_id or title, not both")
	case !hasID && !hasTitle:
		return nil, apierrors.New(apierrors.KindValidation, "task_id or title is required")
	}

	return &TaskSelector{taskID: TaskIDPtr(p.TaskID), title: p.Title, validated: true}, nil
}

// ByID returns the selected id, if the selector names one.
func (s *TaskSelector) ByID() (uint64, bool) {
	if s.taskID == nil {
		return 0, false
	}
	return *s.taskID, true
}

// Title returns the selected title; empty when selecting by id.
func (s *TaskSelector) Title() string {
	return s.title
}

// Valid reports whether s was produced by NewTaskSelector.
func (s *TaskSelector) Valid() bool {
	return s != nil && s.validated
}

// TaskDTO represents a task in API responses. Owner and parent ids are internal.
type TaskDTO struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Importance  int       `json:"importance"`
	Deadline    time.Time `json:"deadline"`
	EstTimeDays *int      `json:"est_time_days"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SuggestedTaskDTO is a task proposed by the suggestion service, shaped like
// an add payload so a client can submit it unchanged.
type SuggestedTaskDTO struct {
	Title       string  `json:"title"`
	Importance  int     `json:"importance"`
	Deadline    string  `json:"deadline"`
	EstTimeDays *int    `json:"est_time_days"`
	Description *string `json:"description"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Importance:  task.Importance,
		Deadline:    task.Deadline,
		EstTimeDays: task.EstTimeDays,
		Description: task.Description,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}
