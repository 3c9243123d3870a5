package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yukikurage/taskmanager/internal/dto"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
	"github.com/yukikurage/taskmanager/internal/models"
	"github.com/yukikurage/taskmanager/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound        = apierrors.New(apierrors.KindNotFound, "task not found")
	ErrParentNotFound      = apierrors.New(apierrors.KindNotFound, "parent task not found")
	ErrParentCycle         = apierrors.New(apierrors.KindValidation, "a task cannot be its own ancestor")
	ErrAmbiguousTitle      = apierrors.New(apierrors.KindValidation, "more than one task has this title, use task_id instead")
	ErrInvalidOwnerID      = apierrors.New(apierrors.KindTypeMismatch, "owner id must be a positive integer")
	ErrInvalidTaskID       = apierrors.New(apierrors.KindTypeMismatch, "task id must be a positive integer")
	ErrUnvalidatedAdd      = apierrors.New(apierrors.KindTypeMismatch, "add request was not built by NewAddTaskRequest")
	ErrUnvalidatedEdit     = apierrors.New(apierrors.KindTypeMismatch, "edit request was not built by NewEditTaskRequest")
	ErrUnvalidatedSelector = apierrors.New(apierrors.KindTypeMismatch, "selector was not built by NewTaskSelector")
)

// TaskService is the only mutation path for tasks. Every operation is scoped
// by an explicit owner id.
type TaskService struct {
	taskRepo repository.TaskRepository
	log      *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, log *slog.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		log:      log,
	}
}

// AddTask stores a validated task for the owner, optionally under a parent,
// and returns the new id.
func (s *TaskService) AddTask(ctx context.Context, req *dto.AddTaskRequest, ownerID uint64, parentID *uint64) (uint64, error) {
	if !req.Valid() {
		return 0, ErrUnvalidatedAdd
	}
	if ownerID == 0 {
		return 0, ErrInvalidOwnerID
	}
	if parentID != nil && *parentID == 0 {
		return 0, ErrInvalidTaskID
	}

	task := &models.Task{
		Title:        req.Title(),
		Importance:   req.Importance(),
		Deadline:     req.Deadline(),
		EstTimeDays:  req.EstTimeDays(),
		Description:  req.Description(),
		UserID:       ownerID,
		ParentTaskID: parentID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		if errors.Is(err, repository.ErrParentNotFound) {
			return 0, ErrParentNotFound
		}
		return 0, s.storageError(ctx, "add task", err)
	}

	return task.ID, nil
}

// GetTask returns one task of the owner, including owner and parent ids.
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	if err := checkIDs(ownerID, taskID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindOwned(ctx, ownerID, taskID)
	if err != nil {
		return nil, s.lookupError(ctx, "get task", err)
	}
	return task, nil
}

// ListTasks returns all tasks of the owner.
func (s *TaskService) ListTasks(ctx context.Context, ownerID uint64) ([]models.Task, error) {
	if ownerID == 0 {
		return nil, ErrInvalidOwnerID
	}

	tasks, err := s.taskRepo.ListOwned(ctx, ownerID)
	if err != nil {
		return nil, s.storageError(ctx, "list tasks", err)
	}
	return tasks, nil
}

// DeleteTask removes one task of the owner and returns its former title.
// Children of the task are detached, not removed.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID uint64) (string, error) {
	if err := checkIDs(ownerID, taskID); err != nil {
		return "", err
	}

	task, err := s.taskRepo.Delete(ctx, ownerID, taskID)
	if err != nil {
		return "", s.lookupError(ctx, "delete task", err)
	}
	return task.Title, nil
}

// EditTask overwrites the editable fields of one task of the owner.
func (s *TaskService) EditTask(ctx context.Context, ownerID uint64, req *dto.EditTaskRequest) error {
	if !req.Valid() {
		return ErrUnvalidatedEdit
	}
	if err := checkIDs(ownerID, req.TaskID()); err != nil {
		return err
	}

	err := s.taskRepo.Overwrite(ctx, ownerID, req.TaskID(), repository.TaskFields{
		Title:       req.Title(),
		Importance:  req.Importance(),
		Deadline:    req.Deadline(),
		EstTimeDays: req.EstTimeDays(),
		Description: req.Description(),
	})
	if err != nil {
		return s.lookupError(ctx, "edit task", err)
	}
	return nil
}

// FindTaskByTitle looks a task up by its exact title among the owner's tasks.
func (s *TaskService) FindTaskByTitle(ctx context.Context, ownerID uint64, title string) (*models.Task, error) {
	if ownerID == 0 {
		return nil, ErrInvalidOwnerID
	}

	tasks, err := s.taskRepo.FindOwnedByTitle(ctx, ownerID, title)
	if err != nil {
		return nil, s.storageError(ctx, "find task by title", err)
	}

	switch len(tasks) {
	case 0:
		return nil, ErrTaskNotFound
	case 1:
		return &tasks[0], nil
	default:
		return nil, ErrAmbiguousTitle
	}
}

// ResolveSelector turns an id-or-title selector into a task id.
// Selection by id is not checked for existence here.
func (s *TaskService) ResolveSelector(ctx context.Context, ownerID uint64, sel *dto.TaskSelector) (uint64, error) {
	if !sel.Valid() {
		return 0, ErrUnvalidatedSelector
	}
	if id, ok := sel.ByID(); ok {
		return id, nil
	}

	task, err := s.FindTaskByTitle(ctx, ownerID, sel.Title())
	if err != nil {
		return 0, err
	}
	return task.ID, nil
}

// SetParent links a task under another task of the same owner, or detaches
// it when parentID is nil.
func (s *TaskService) SetParent(ctx context.Context, ownerID, taskID uint64, parentID *uint64) error {
	if err := checkIDs(ownerID, taskID); err != nil {
		return err
	}
	if parentID != nil && *parentID == 0 {
		return ErrInvalidTaskID
	}

	err := s.taskRepo.SetParent(ctx, ownerID, taskID, parentID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrParentNotFound):
		return ErrParentNotFound
	case errors.Is(err, repository.ErrParentCycle):
		return ErrParentCycle
	default:
		return s.lookupError(ctx, "set parent", err)
	}
}

func checkIDs(ownerID, taskID uint64) error {
	if ownerID == 0 {
		return ErrInvalidOwnerID
	}
	if taskID == 0 {
		return ErrInvalidTaskID
	}
	return nil
}

// lookupError maps a missing row to ErrTaskNotFound and anything else to a storage error.
func (s *TaskService) lookupError(ctx context.Context, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTaskNotFound
	}
	return s.storageError(ctx, op, err)
}

func (s *TaskService) storageError(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "task store failure", "op", op, "error", err)
	return apierrors.Newf(apierrors.KindStorage, "failed to %s", op)
}
