package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// AddIndexes adds the lookup indexes the task queries rely on
func AddIndexes(db *gorm.DB, log *slog.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Owner scoping is part of every task query
		{"tasks", "idx_tasks_user_id", "user_id"},
		{"tasks", "idx_tasks_user_id_title", "user_id, title"},
		// Child lookups for detach and cycle checks
		{"tasks", "idx_tasks_parent_task_id", "parent_task_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Debug("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
