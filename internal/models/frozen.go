package models

import (
	"time"

	"gorm.io/datatypes"
)

// FrozenTaskSubmission is the immutable snapshot of one member's
// best-qualifying submission, taken when a leader locks a phase or project
// for grading. Task title and description are copied, not referenced, so
// later task edits cannot alter graded history.
type FrozenTaskSubmission struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	TaskID               uint           `gorm:"not null;index" json:"task_id"`
	PhaseID              uint           `gorm:"not null;index" json:"phase_id"`
	GroupID              uint           `gorm:"not null;index" json:"group_id"`
	StudentID            uint           `gorm:"not null;index" json:"student_id"`
	OriginalSubmissionID *uint          `json:"original_submission_id"`
	TaskTitle            string         `gorm:"size:255;not null" json:"task_title"`
	TaskDescription      string         `gorm:"type:text" json:"task_description"`
	SubmissionText       string         `gorm:"type:text" json:"submission_text"`
	FileURLs             datatypes.JSON `gorm:"type:json" json:"-"`
	OriginalStatus       string         `gorm:"size:32;not null" json:"original_status"`
	OriginalSubmittedAt  *time.Time     `json:"original_submitted_at"`
	FrozenAt             time.Time      `json:"frozen_at"`
	FrozenBy             uint           `gorm:"not null" json:"frozen_by"`
	AttemptNumber        int            `gorm:"default:0" json:"attempt_number"`
	SubmissionType       string         `gorm:"size:32;not null" json:"submission_type"`
	IsRevisionBased      bool           `gorm:"default:false" json:"is_revision_based"`
	FreezeBatchID        string         `gorm:"size:64;index" json:"freeze_batch_id"`
}

// Snapshot selection outcomes, in priority order.
const (
	// SnapshotApprovedRevision selects the most recent approved revision.
	SnapshotApprovedRevision = "approved_revision"
	// SnapshotLatestRevision selects the most recent revision of any status.
	SnapshotLatestRevision = "latest_revision"
	// SnapshotApprovedOriginal selects an approved original submission.
	SnapshotApprovedOriginal = "approved_original"
	// SnapshotLatestOriginal selects the most recent original submission.
	SnapshotLatestOriginal = "latest_original"
	// SnapshotAssignedNoSubmission marks a task assigned but never submitted.
	SnapshotAssignedNoSubmission = "assigned_no_submission"
	// SnapshotNoSubmission marks a task that was never assigned in scope.
	SnapshotNoSubmission = "no_submission"
)

// Placeholder texts written into frozen rows when nothing was submitted.
const (
	PlaceholderAssignedNoSubmission = "Task was assigned but no submission was made"
	PlaceholderNoSubmission         = "No task assigned or submitted"
)

// SetFileURLs serializes the snapshotted file references.
func (f *FrozenTaskSubmission) SetFileURLs(urls []string) {
	f.FileURLs = marshalStringList(urls)
}

// FileURLList deserializes the snapshotted file references.
func (f FrozenTaskSubmission) FileURLList() []string {
	return unmarshalStringList(f.FileURLs)
}
