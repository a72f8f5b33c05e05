package dto

import (
	"time"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// FreezeReport summarizes the outcome of a best-effort freeze run. Failures
// never abort the run; the report makes them visible to the caller.
type FreezeReport struct {
	BatchID      string        `json:"batch_id"`
	ProjectID    uint          `json:"project_id,omitempty"`
	Phases       []PhaseReport `json:"phases"`
	TotalFrozen  int           `json:"total_frozen"`
	TotalSkipped int           `json:"total_skipped"`
	TotalFailed  int           `json:"total_failed"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// PhaseReport is the per-phase slice of a freeze report.
type PhaseReport struct {
	PhaseID uint   `json:"phase_id"`
	Frozen  int    `json:"frozen"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
}

// Merge folds a phase outcome into the run totals.
func (r *FreezeReport) Merge(phase PhaseReport) {
	r.Phases = append(r.Phases, phase)
	r.TotalFrozen += phase.Frozen
	r.TotalSkipped += phase.Skipped
	r.TotalFailed += phase.Failed
}

// FreezeRequest names the group whose submissions should be frozen.
type FreezeRequest struct {
	GroupID uint `json:"group_id" validate:"required,gt=0"`
}

// FrozenSubmissionResponse serializes a snapshot row for graders.
type FrozenSubmissionResponse struct {
	ID                   uint       `json:"id"`
	TaskID               uint       `json:"task_id"`
	PhaseID              uint       `json:"phase_id"`
	GroupID              uint       `json:"group_id"`
	StudentID            uint       `json:"student_id"`
	OriginalSubmissionID *uint      `json:"original_submission_id"`
	TaskTitle            string     `json:"task_title"`
	TaskDescription      string     `json:"task_description"`
	SubmissionText       string     `json:"submission_text"`
	FileURLs             []string   `json:"file_urls"`
	OriginalStatus       string     `json:"original_status"`
	OriginalSubmittedAt  *time.Time `json:"original_submitted_at"`
	FrozenAt             time.Time  `json:"frozen_at"`
	FrozenBy             uint       `json:"frozen_by"`
	AttemptNumber        int        `json:"attempt_number"`
	SubmissionType       string     `json:"submission_type"`
	IsRevisionBased      bool       `json:"is_revision_based"`
}

// NewFrozenSubmissionResponse converts a snapshot model into a DTO.
func NewFrozenSubmissionResponse(model models.FrozenTaskSubmission) FrozenSubmissionResponse {
	return FrozenSubmissionResponse{
		ID:                   model.ID,
		TaskID:               model.TaskID,
		PhaseID:              model.PhaseID,
		GroupID:              model.GroupID,
		StudentID:            model.StudentID,
		OriginalSubmissionID: model.OriginalSubmissionID,
		TaskTitle:            model.TaskTitle,
		TaskDescription:      model.TaskDescription,
		SubmissionText:       model.SubmissionText,
		FileURLs:             model.FileURLList(),
		OriginalStatus:       model.OriginalStatus,
		OriginalSubmittedAt:  model.OriginalSubmittedAt,
		FrozenAt:             model.FrozenAt,
		FrozenBy:             model.FrozenBy,
		AttemptNumber:        model.AttemptNumber,
		SubmissionType:       model.SubmissionType,
		IsRevisionBased:      model.IsRevisionBased,
	}
}

// NewFrozenSubmissionResponseSlice converts snapshot models into DTOs.
func NewFrozenSubmissionResponseSlice(records []models.FrozenTaskSubmission) []FrozenSubmissionResponse {
	responses := make([]FrozenSubmissionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewFrozenSubmissionResponse(record))
	}

	return responses
}
