package models

import (
	"time"
)

type Task struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Title        string    `gorm:"type:varchar(100);not null" json:"title"`
	Importance   int       `gorm:"not null" json:"importance"`
	Deadline     time.Time `gorm:"not null" json:"deadline"`
	EstTimeDays  *int      `json:"est_time_days"`
	Description  *string   `gorm:"type:varchar(2000)" json:"description"`
	UserID       uint64    `gorm:"not null" json:"user_id"`
	ParentTaskID *uint64   `json:"parent_task_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Children []Task `gorm:"foreignKey:ParentTaskID" json:"-"`
}
