package models

import "time"

// TaskFeedback is an append-only comment left by a reviewer on an original
// or revision submission. Kind records at creation time which table the
// submission id refers to, so consumers never have to infer it.
type TaskFeedback struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Kind         string    `gorm:"size:32;not null;default:original" json:"kind"`
	FeedbackText string    `gorm:"type:text;not null" json:"feedback_text"`
	AuthorID     uint      `gorm:"not null" json:"author_id"`
	IsFromLeader bool      `gorm:"default:false" json:"is_from_leader"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	// FeedbackKindOriginal marks feedback attached to a TaskSubmission.
	FeedbackKindOriginal = "original"
	// FeedbackKindRevision marks feedback attached to a RevisionSubmission.
	FeedbackKindRevision = "revision"
)
