package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/dto"
	"github.com/edusphere-dev/groupwork-api/internal/models"
	"github.com/edusphere-dev/groupwork-api/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrTaskInactive indicates the task no longer accepts submissions.
	ErrTaskInactive = errors.New("task is not active")
	// ErrAttemptsExhausted indicates the attempt limit has been reached.
	ErrAttemptsExhausted = errors.New("maximum attempts reached")
	// ErrNotAssignee indicates the caller is not the task's assigned student.
	ErrNotAssignee = errors.New("task is assigned to a different student")
	// ErrOriginalMismatch indicates a revision referenced an original from a
	// different task or student.
	ErrOriginalMismatch = errors.New("original submission does not belong to this task and student")
	// ErrAlreadyReviewed indicates a submission already has a final review.
	ErrAlreadyReviewed = errors.New("submission has already been reviewed")
)

// SubmissionService orchestrates the original and revision submission
// workflows plus leader reviews.
type SubmissionService interface {
	CreateSubmission(ctx context.Context, taskID, studentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionView, error)
	CreateRevision(ctx context.Context, taskID, studentID uint, payload dto.RevisionCreateRequest) (dto.SubmissionView, error)
	Review(ctx context.Context, submissionID uint, reviewer ActivityActor, payload dto.ReviewRequest) (dto.SubmissionView, error)
}

type submissionService struct {
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	revisions   repository.RevisionRepository
	views       TaskViewService
	activity    ActivityRecorder
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(tasks repository.TaskRepository, submissions repository.SubmissionRepository, revisions repository.RevisionRepository, views TaskViewService, activity ActivityRecorder, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		tasks:       tasks,
		submissions: submissions,
		revisions:   revisions,
		views:       views,
		activity:    activity,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) CreateSubmission(ctx context.Context, taskID, studentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionView, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionView{}, err
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionView{}, ErrTaskNotFound
		}
		return dto.SubmissionView{}, err
	}

	if !task.IsActive {
		return dto.SubmissionView{}, ErrTaskInactive
	}
	if task.AssignedTo != studentID {
		return dto.SubmissionView{}, ErrNotAssignee
	}
	if task.AttemptsExhausted() {
		return dto.SubmissionView{}, ErrAttemptsExhausted
	}

	submittedAt := s.now()
	attemptNumber := task.CurrentAttempts + 1

	submission := models.TaskSubmission{
		TaskID:         taskID,
		SubmittedBy:    studentID,
		AttemptNumber:  attemptNumber,
		SubmissionText: s.sanitizer.Sanitize(payload.SubmissionText),
		Status:         models.SubmissionStatusPending,
		SubmittedAt:    submittedAt,
		IsLate:         !task.DueDate.IsZero() && submittedAt.After(task.DueDate),
	}
	submission.SetFileURLs(payload.FileURLs)

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionView{}, err
	}

	if err := s.tasks.UpdateAttempts(ctx, taskID, attemptNumber); err != nil {
		s.logger.Warn().Err(err).Uint("task_id", taskID).Msg("failed to bump attempt counter")
	}

	// A revise-task keeps its to_revise status until the leader reviews the
	// new attempt; everything else moves to pending_review.
	if task.Status != models.TaskStatusToRevise {
		if err := s.tasks.UpdateStatus(ctx, taskID, models.TaskStatusPendingReview); err != nil {
			s.logger.Warn().Err(err).Uint("task_id", taskID).Msg("failed to update task status")
		}
	}

	s.views.InvalidateTaskView(ctx, taskID, studentID)
	s.logger.Info().
		Uint("task_id", taskID).
		Uint("submission_id", submission.ID).
		Int("attempt", attemptNumber).
		Bool("late", submission.IsLate).
		Msg("submission created")

	return dto.NewOriginalSubmissionView(submission, attemptNumber), nil
}

func (s *submissionService) CreateRevision(ctx context.Context, taskID, studentID uint, payload dto.RevisionCreateRequest) (dto.SubmissionView, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionView{}, err
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionView{}, ErrTaskNotFound
		}
		return dto.SubmissionView{}, err
	}

	if !task.IsActive {
		return dto.SubmissionView{}, ErrTaskInactive
	}
	if task.AssignedTo != studentID {
		return dto.SubmissionView{}, ErrNotAssignee
	}

	original, err := s.submissions.GetByID(ctx, payload.OriginalSubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionView{}, ErrSubmissionNotFound
		}
		return dto.SubmissionView{}, err
	}
	if original.TaskID != taskID || original.SubmittedBy != studentID {
		return dto.SubmissionView{}, ErrOriginalMismatch
	}

	priorRevisions, err := s.revisions.CountByOriginal(ctx, original.ID)
	if err != nil {
		return dto.SubmissionView{}, err
	}

	revision := models.RevisionSubmission{
		TaskID:                taskID,
		SubmittedBy:           studentID,
		OriginalSubmissionID:  original.ID,
		RevisionAttemptNumber: int(priorRevisions) + 1,
		SubmissionText:        s.sanitizer.Sanitize(payload.SubmissionText),
		Status:                models.SubmissionStatusPending,
		SubmittedAt:           s.now(),
	}
	revision.SetFilePaths(payload.FilePaths)

	if err := s.revisions.Create(ctx, &revision); err != nil {
		return dto.SubmissionView{}, err
	}

	s.views.InvalidateTaskView(ctx, taskID, studentID)
	s.logger.Info().
		Uint("task_id", taskID).
		Uint("revision_id", revision.ID).
		Uint("original_submission_id", original.ID).
		Int("revision_attempt", revision.RevisionAttemptNumber).
		Msg("revision created")

	return dto.NewRevisionSubmissionView(revision, original.AttemptNumber, revision.RevisionAttemptNumber), nil
}

func (s *submissionService) Review(ctx context.Context, submissionID uint, reviewer ActivityActor, payload dto.ReviewRequest) (dto.SubmissionView, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionView{}, err
	}

	comments := s.sanitizer.Sanitize(strings.TrimSpace(payload.Comments))

	switch payload.Kind {
	case dto.ReviewKindRevision:
		return s.reviewRevision(ctx, submissionID, reviewer, payload.Decision, comments)
	default:
		return s.reviewOriginal(ctx, submissionID, reviewer, payload.Decision, comments)
	}
}

func (s *submissionService) reviewOriginal(ctx context.Context, submissionID uint, reviewer ActivityActor, decision, comments string) (dto.SubmissionView, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionView{}, ErrSubmissionNotFound
		}
		return dto.SubmissionView{}, err
	}
	if models.IsApprovedStatus(submission.Status) {
		return dto.SubmissionView{}, ErrAlreadyReviewed
	}

	reviewedAt := s.now()
	submission.Status = decisionStatus(decision)
	submission.ReviewedAt = &reviewedAt
	submission.ReviewedBy = &reviewer.ID
	submission.ReviewComments = comments

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionView{}, err
	}

	s.finishReview(ctx, submission.TaskID, submission.SubmittedBy, submission.ID, "task_submission", decision, reviewer)

	return dto.NewOriginalSubmissionView(submission, submission.AttemptNumber), nil
}

func (s *submissionService) reviewRevision(ctx context.Context, revisionID uint, reviewer ActivityActor, decision, comments string) (dto.SubmissionView, error) {
	revision, err := s.revisions.GetByID(ctx, revisionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionView{}, ErrSubmissionNotFound
		}
		return dto.SubmissionView{}, err
	}
	if models.IsApprovedStatus(revision.Status) {
		return dto.SubmissionView{}, ErrAlreadyReviewed
	}

	reviewedAt := s.now()
	revision.Status = decisionStatus(decision)
	revision.ReviewedAt = &reviewedAt
	revision.ReviewComments = comments

	if err := s.revisions.Update(ctx, &revision); err != nil {
		return dto.SubmissionView{}, err
	}

	s.finishReview(ctx, revision.TaskID, revision.SubmittedBy, revision.ID, "revision_submission", decision, reviewer)

	original, err := s.submissions.GetByID(ctx, revision.OriginalSubmissionID)
	attemptNumber := 0
	if err == nil {
		attemptNumber = original.AttemptNumber
	}

	return dto.NewRevisionSubmissionView(revision, attemptNumber, revision.RevisionAttemptNumber), nil
}

// finishReview propagates the review decision to the task status and emits
// the audit plus event side effects. All of these are best effort; the
// review itself has already been persisted.
func (s *submissionService) finishReview(ctx context.Context, taskID, studentID, entityID uint, entityType, decision string, reviewer ActivityActor) {
	taskStatus := models.TaskStatusCompleted
	if decision == dto.ReviewDecisionRequestRevision {
		taskStatus = models.TaskStatusToRevise
	}
	if err := s.tasks.UpdateStatus(ctx, taskID, taskStatus); err != nil {
		s.logger.Warn().Err(err).Uint("task_id", taskID).Msg("failed to update task status after review")
	}

	s.views.InvalidateTaskView(ctx, taskID, studentID)

	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    reviewer.ID,
		ActorRole:  reviewer.Role,
		Action:     fmt.Sprintf("submission.%s", decision),
		EntityType: entityType,
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"task_id":  taskID,
			"decision": decision,
		},
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record review activity")
	}

	s.events.Publish(ctx, EventSubmissionReviewed, map[string]interface{}{
		"task_id":     taskID,
		"entity_type": entityType,
		"entity_id":   entityID,
		"decision":    decision,
	})

	s.logger.Info().
		Uint("task_id", taskID).
		Str("entity_type", entityType).
		Str("decision", decision).
		Msg("submission reviewed")
}

func decisionStatus(decision string) string {
	if decision == dto.ReviewDecisionRequestRevision {
		return models.SubmissionStatusRevisionRequested
	}
	return models.SubmissionStatusApproved
}
