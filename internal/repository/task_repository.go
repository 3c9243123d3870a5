package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/taskmanager/internal/database"
	"github.com/yukikurage/taskmanager/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create inserts a task in a transaction; a failed insert is rolled back
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if task.ParentTaskID != nil {
			if _, err := findOwned(tx, task.UserID, *task.ParentTaskID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParentNotFound
				}
				return err
			}
		}

		return tx.Create(task).Error
	})
}

// FindOwned finds one task of the owner
func (r *GormTaskRepository) FindOwned(ctx context.Context, ownerID, id uint64) (*models.Task, error) {
	return findOwned(r.db.WithContext(ctx), ownerID, id)
}

// ListOwned lists all tasks of the owner in id order
func (r *GormTaskRepository) ListOwned(ctx context.Context, ownerID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindOwnedByTitle lists the owner's tasks whose title matches exactly
func (r *GormTaskRepository) FindOwnedByTitle(ctx context.Context, ownerID uint64, title string) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Where("title = ?", title).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Overwrite replaces every editable column, including clearing the optional ones
func (r *GormTaskRepository) Overwrite(ctx context.Context, ownerID, id uint64, fields TaskFields) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findOwned(tx, ownerID, id)
		if err != nil {
			return err
		}

		return tx.Model(task).
			Select("Title", "Importance", "Deadline", "EstTimeDays", "Description").
			Updates(models.Task{
				Title:       fields.Title,
				Importance:  fields.Importance,
				Deadline:    fields.Deadline,
				EstTimeDays: fields.EstTimeDays,
				Description: fields.Description,
			}).Error
	})
}

// Delete removes a task and detaches its children in one transaction
func (r *GormTaskRepository) Delete(ctx context.Context, ownerID, id uint64) (*models.Task, error) {
	var deleted *models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findOwned(tx, ownerID, id)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Task{}).
			Where("parent_task_id = ?", task.ID).
			Update("parent_task_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Delete(task).Error; err != nil {
			return err
		}

		deleted = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// SetParent re-links a task after checking the new parent exists for the same
// owner and is not the task itself or one of its descendants
func (r *GormTaskRepository) SetParent(ctx context.Context, ownerID, id uint64, parentID *uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findOwned(tx, ownerID, id)
		if err != nil {
			return err
		}

		var value any
		if parentID != nil {
			if err := ensureNotAncestor(tx, ownerID, id, *parentID); err != nil {
				return err
			}
			value = *parentID
		}

		return tx.Model(task).Update("parent_task_id", value).Error
	})
}

// ensureNotAncestor walks up from parentID and fails if it reaches taskID.
func ensureNotAncestor(tx *gorm.DB, ownerID, taskID, parentID uint64) error {
	visited := map[uint64]struct{}{}
	current := parentID
	for {
		if current == taskID {
			return ErrParentCycle
		}
		if _, seen := visited[current]; seen {
			// The existing chain already loops; linking into it would too.
			return ErrParentCycle
		}
		visited[current] = struct{}{}

		node, err := findOwned(tx, ownerID, current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if current == parentID {
					return ErrParentNotFound
				}
				// A dangling link ends the chain.
				return nil
			}
			return err
		}
		if node.ParentTaskID == nil {
			return nil
		}
		current = *node.ParentTaskID
	}
}

func findOwned(db *gorm.DB, ownerID, id uint64) (*models.Task, error) {
	var task models.Task
	if err := db.Scopes(database.OwnedBy(ownerID), database.ByID(id)).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}
