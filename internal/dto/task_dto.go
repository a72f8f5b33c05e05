package dto

import (
	"time"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// SubmissionView is the unified client shape for both original and revision
// submissions. Revisions carry the attempt number of their parent original
// plus their own revision number.
type SubmissionView struct {
	ID                    uint       `json:"id"`
	TaskID                uint       `json:"task_id"`
	SubmittedBy           uint       `json:"submitted_by"`
	SubmissionText        string     `json:"submission_text"`
	FileURLs              []string   `json:"file_urls"`
	Status                string     `json:"status"`
	SubmittedAt           time.Time  `json:"submitted_at"`
	ReviewedAt            *time.Time `json:"reviewed_at"`
	ReviewComments        string     `json:"review_comments"`
	IsRevision            bool       `json:"is_revision"`
	AttemptNumber         int        `json:"attempt_number"`
	RevisionNumber        int        `json:"revision_number,omitempty"`
	RevisionAttemptNumber int        `json:"revision_attempt_number,omitempty"`
	OriginalSubmissionID  uint       `json:"original_submission_id,omitempty"`
	IsLate                bool       `json:"is_late,omitempty"`
}

// AttemptGroup is one entry of the grouped submission history. Each original
// submission produces one group carrying its revisions; each revision also
// produces a standalone revision-attempt group so the client can address
// every revision independently.
type AttemptGroup struct {
	AttemptNumber      int             `json:"attempt_number"`
	RevisionNumber     int             `json:"revision_number,omitempty"`
	IsRevisionAttempt  bool            `json:"is_revision_attempt,omitempty"`
	OriginalSubmission *SubmissionView `json:"original_submission"`
	Revisions          []SubmissionView `json:"revisions"`
	LatestStatus       string          `json:"latest_status"`
	HasPendingRevision bool            `json:"has_pending_revision"`
	NeedsNewRevision   bool            `json:"needs_new_revision"`
}

// TaskViewResponse renders a single task with its resolved status and full
// submission history.
type TaskViewResponse struct {
	TaskID               uint             `json:"task_id"`
	Title                string           `json:"title"`
	Status               string           `json:"status"`
	MaxAttempts          int              `json:"max_attempts"`
	CurrentAttempts      int              `json:"current_attempts"`
	GroupedSubmissions   []AttemptGroup   `json:"grouped_submissions"`
	FlattenedSubmissions []SubmissionView `json:"task_submissions"`
	ErrorProcessing      bool             `json:"error_processing,omitempty"`
}

// LatestStatusResponse reports where a task's most recent status comes from.
type LatestStatusResponse struct {
	Status      string     `json:"status"`
	Source      string     `json:"source"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Attempt     int        `json:"attempt,omitempty"`
}

// SubmissionCreateRequest is the payload for an original task submission.
type SubmissionCreateRequest struct {
	SubmissionText string   `json:"submission_text" validate:"required,min=1"`
	FileURLs       []string `json:"file_urls" validate:"omitempty,dive,min=1"`
}

// RevisionCreateRequest is the payload for a revision submission.
type RevisionCreateRequest struct {
	OriginalSubmissionID uint     `json:"original_submission_id" validate:"required,gt=0"`
	SubmissionText       string   `json:"submission_text" validate:"required,min=1"`
	FilePaths            []string `json:"file_paths" validate:"omitempty,dive,min=1"`
}

const (
	// ReviewDecisionApprove accepts the reviewed work.
	ReviewDecisionApprove = "approve"
	// ReviewDecisionRequestRevision sends the work back for changes.
	ReviewDecisionRequestRevision = "request_revision"
	// ReviewKindOriginal targets an original submission.
	ReviewKindOriginal = "original"
	// ReviewKindRevision targets a revision submission.
	ReviewKindRevision = "revision"
)

// ReviewRequest approves a submission or requests a revision of it.
type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve request_revision"`
	Kind     string `json:"kind" validate:"required,oneof=original revision"`
	Comments string `json:"comments" validate:"omitempty,max=4000"`
}

// FeedbackCreateRequest appends reviewer feedback to a submission.
type FeedbackCreateRequest struct {
	Kind         string `json:"kind" validate:"required,oneof=original revision"`
	FeedbackText string `json:"feedback_text" validate:"required,min=1,max=4000"`
}

// FeedbackResponse serializes a feedback entry.
type FeedbackResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submission_id"`
	Kind         string    `json:"kind"`
	FeedbackText string    `json:"feedback_text"`
	AuthorID     uint      `json:"author_id"`
	IsFromLeader bool      `json:"is_from_leader"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewOriginalSubmissionView converts an original submission into the unified view.
func NewOriginalSubmissionView(model models.TaskSubmission, attemptNumber int) SubmissionView {
	return SubmissionView{
		ID:             model.ID,
		TaskID:         model.TaskID,
		SubmittedBy:    model.SubmittedBy,
		SubmissionText: model.SubmissionText,
		FileURLs:       model.FileURLList(),
		Status:         model.Status,
		SubmittedAt:    model.SubmittedAt,
		ReviewedAt:     model.ReviewedAt,
		ReviewComments: model.ReviewComments,
		AttemptNumber:  attemptNumber,
		IsLate:         model.IsLate,
	}
}

// NewRevisionSubmissionView converts a revision into the unified view.
func NewRevisionSubmissionView(model models.RevisionSubmission, attemptNumber, revisionNumber int) SubmissionView {
	return SubmissionView{
		ID:                    model.ID,
		TaskID:                model.TaskID,
		SubmittedBy:           model.SubmittedBy,
		SubmissionText:        model.SubmissionText,
		FileURLs:              model.FilePathList(),
		Status:                model.Status,
		SubmittedAt:           model.SubmittedAt,
		ReviewedAt:            model.ReviewedAt,
		ReviewComments:        model.ReviewComments,
		IsRevision:            true,
		AttemptNumber:         attemptNumber,
		RevisionNumber:        revisionNumber,
		RevisionAttemptNumber: model.RevisionAttemptNumber,
		OriginalSubmissionID:  model.OriginalSubmissionID,
	}
}

// NewFeedbackResponse converts a feedback model into a DTO.
func NewFeedbackResponse(model models.TaskFeedback) FeedbackResponse {
	return FeedbackResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		Kind:         model.Kind,
		FeedbackText: model.FeedbackText,
		AuthorID:     model.AuthorID,
		IsFromLeader: model.IsFromLeader,
		CreatedAt:    model.CreatedAt,
	}
}
