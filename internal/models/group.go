package models

import "time"

// GroupMember links a student to a project group. Membership can change
// after tasks were assigned, so tasks may reference students no longer in
// the group.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;index" json:"group_id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	IsLeader  bool      `gorm:"default:false" json:"is_leader"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectPhase is one ordered stage of a project. A task belongs to exactly
// one phase.
type ProjectPhase struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"not null;index" json:"project_id"`
	PhaseNumber int       `gorm:"not null" json:"phase_number"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
}
