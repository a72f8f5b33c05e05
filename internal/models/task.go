package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Task is a deliverable assigned by a group leader to one group member.
type Task struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ProjectID       uint           `gorm:"not null;index" json:"project_id"`
	PhaseID         uint           `gorm:"not null;index" json:"phase_id"`
	AssignedTo      uint           `gorm:"not null;index" json:"assigned_to"`
	AssignedBy      uint           `gorm:"not null" json:"assigned_by"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	DueDate         time.Time      `json:"due_date"`
	AvailableUntil  *time.Time     `json:"available_until"`
	MaxAttempts     int            `gorm:"default:-1" json:"max_attempts"`
	CurrentAttempts int            `gorm:"default:0" json:"current_attempts"`
	Status          string         `gorm:"size:32;not null;default:pending" json:"status"`
	AllowedTypes    datatypes.JSON `gorm:"type:json" json:"-"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

const (
	// TaskStatusPending indicates no submission has been made yet.
	TaskStatusPending = "pending"
	// TaskStatusInProgress indicates the assignee has started working.
	TaskStatusInProgress = "in_progress"
	// TaskStatusPendingReview indicates a submission is awaiting leader review.
	TaskStatusPendingReview = "pending_review"
	// TaskStatusToRevise indicates the leader requested changes.
	TaskStatusToRevise = "to_revise"
	// TaskStatusCompleted indicates a submission was approved.
	TaskStatusCompleted = "completed"
)

// HasUnlimitedAttempts reports whether the attempt limit is disabled.
func (t Task) HasUnlimitedAttempts() bool {
	return t.MaxAttempts < 0
}

// AttemptsExhausted reports whether a new original submission would exceed
// the configured attempt limit. Revisions are never counted against it.
func (t Task) AttemptsExhausted() bool {
	if t.HasUnlimitedAttempts() || t.MaxAttempts == 0 {
		return false
	}
	return t.CurrentAttempts >= t.MaxAttempts
}

// SetAllowedTypes serializes the permitted file extensions into the JSON column.
func (t *Task) SetAllowedTypes(types []string) {
	data, err := json.Marshal(types)
	if err != nil {
		t.AllowedTypes = datatypes.JSON([]byte("[]"))
		return
	}
	t.AllowedTypes = datatypes.JSON(data)
}

// AllowedTypeList deserializes the permitted file extensions.
func (t Task) AllowedTypeList() []string {
	if len(t.AllowedTypes) == 0 {
		return nil
	}

	var types []string
	if err := json.Unmarshal(t.AllowedTypes, &types); err != nil {
		return nil
	}
	return types
}
