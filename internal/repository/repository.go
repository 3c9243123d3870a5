package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/taskmanager/internal/models"
)

var (
	// ErrParentNotFound is returned when a parent id names no task of the same owner.
	ErrParentNotFound = errors.New("task repository: parent task not found")
	// ErrParentCycle is returned when a parent link would make a task its own ancestor.
	ErrParentCycle = errors.New("task repository: parent link would create a cycle")
)

// TaskRepository defines the interface for task data access.
// Every method is scoped to the owning user; a task of another user is
// reported as gorm.ErrRecordNotFound.
type TaskRepository interface {
	// Create inserts a task, verifying its parent inside the same transaction
	Create(ctx context.Context, task *models.Task) error

	// FindOwned finds one task of the owner
	FindOwned(ctx context.Context, ownerID, id uint64) (*models.Task, error)

	// ListOwned lists all tasks of the owner
	ListOwned(ctx context.Context, ownerID uint64) ([]models.Task, error)

	// FindOwnedByTitle lists the owner's tasks whose title matches exactly
	FindOwnedByTitle(ctx context.Context, ownerID uint64, title string) ([]models.Task, error)

	// Overwrite replaces the editable fields of a task
	Overwrite(ctx context.Context, ownerID, id uint64, fields TaskFields) error

	// Delete removes a task, detaching its children, and returns the removed row
	Delete(ctx context.Context, ownerID, id uint64) (*models.Task, error)

	// SetParent re-links a task under parentID, or detaches it when parentID is nil
	SetParent(ctx context.Context, ownerID, id uint64, parentID *uint64) error
}

// TaskFields holds the editable columns of a task
type TaskFields struct {
	Title       string
	Importance  int
	Deadline    time.Time
	EstTimeDays *int
	Description *string
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// ExistsByUsername reports whether the exact username is registered
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail reports whether the exact email is registered
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
