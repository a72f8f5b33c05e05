package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// TaskSubmission is one original attempt at a task by the assigned student.
// Review fields are only ever written by a leader; once approved the row is
// treated as immutable.
type TaskSubmission struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	TaskID         uint           `gorm:"not null;index" json:"task_id"`
	SubmittedBy    uint           `gorm:"not null;index" json:"submitted_by"`
	AttemptNumber  int            `gorm:"not null;default:1" json:"attempt_number"`
	SubmissionText string         `gorm:"type:text" json:"submission_text"`
	FileURLs       datatypes.JSON `gorm:"type:json" json:"-"`
	Status         string         `gorm:"size:32;not null;default:pending" json:"status"`
	SubmittedAt    time.Time      `json:"submitted_at"`
	ReviewedAt     *time.Time     `json:"reviewed_at"`
	ReviewedBy     *uint          `json:"reviewed_by"`
	ReviewComments string         `gorm:"type:text" json:"review_comments"`
	IsLate         bool           `gorm:"default:false" json:"is_late"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// RevisionSubmission is a resubmission answering a revision request. Every
// revision points at the original TaskSubmission that started the attempt;
// revisions never chain to a previous revision.
type RevisionSubmission struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	TaskID                uint           `gorm:"not null;index" json:"task_id"`
	SubmittedBy           uint           `gorm:"not null;index" json:"submitted_by"`
	OriginalSubmissionID  uint           `gorm:"not null;index" json:"original_submission_id"`
	RevisionAttemptNumber int            `gorm:"not null;default:1" json:"revision_attempt_number"`
	SubmissionText        string         `gorm:"type:text" json:"submission_text"`
	FilePaths             datatypes.JSON `gorm:"type:json" json:"-"`
	Status                string         `gorm:"size:32;not null;default:pending" json:"status"`
	SubmittedAt           time.Time      `json:"submitted_at"`
	ReviewedAt            *time.Time     `json:"reviewed_at"`
	ReviewComments        string         `gorm:"type:text" json:"review_comments"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

const (
	// SubmissionStatusPending indicates the submission awaits review.
	SubmissionStatusPending = "pending"
	// SubmissionStatusApproved indicates the reviewer accepted the work.
	SubmissionStatusApproved = "approved"
	// SubmissionStatusRejected indicates the reviewer rejected the attempt outright.
	SubmissionStatusRejected = "rejected"
	// SubmissionStatusRevisionRequested indicates the reviewer asked for changes.
	SubmissionStatusRevisionRequested = "revision_requested"
	// SubmissionStatusAccepted is a legacy alias for approved still present in
	// older rows; status checks treat it as approved.
	SubmissionStatusAccepted = "accepted"
)

// IsApprovedStatus reports whether a stored status counts as an approval.
func IsApprovedStatus(status string) bool {
	return status == SubmissionStatusApproved || status == SubmissionStatusAccepted
}

// SetFileURLs serializes the uploaded file references into the JSON column.
func (s *TaskSubmission) SetFileURLs(urls []string) {
	s.FileURLs = marshalStringList(urls)
}

// FileURLList deserializes the stored file references.
func (s TaskSubmission) FileURLList() []string {
	return unmarshalStringList(s.FileURLs)
}

// SetFilePaths serializes the uploaded file references into the JSON column.
func (r *RevisionSubmission) SetFilePaths(paths []string) {
	r.FilePaths = marshalStringList(paths)
}

// FilePathList deserializes the stored file references.
func (r RevisionSubmission) FilePathList() []string {
	return unmarshalStringList(r.FilePaths)
}

func marshalStringList(values []string) datatypes.JSON {
	data, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}

func unmarshalStringList(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil
	}
	return values
}
