package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/dto"
	"github.com/edusphere-dev/groupwork-api/internal/models"
	"github.com/edusphere-dev/groupwork-api/internal/repository"
)

// ErrFeedbackTargetNotFound indicates the submission being commented on
// does not exist.
var ErrFeedbackTargetNotFound = errors.New("feedback target not found")

// FeedbackService appends reviewer feedback to submissions. Feedback rows
// are append-only; there is no update or delete path.
type FeedbackService interface {
	Create(ctx context.Context, submissionID uint, author ActivityActor, payload dto.FeedbackCreateRequest) (dto.FeedbackResponse, error)
	ListBySubmission(ctx context.Context, submissionID uint, kind string) ([]dto.FeedbackResponse, error)
}

type feedbackService struct {
	feedback    repository.FeedbackRepository
	submissions repository.SubmissionRepository
	revisions   repository.RevisionRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewFeedbackService constructs a FeedbackService instance.
func NewFeedbackService(feedback repository.FeedbackRepository, submissions repository.SubmissionRepository, revisions repository.RevisionRepository, validate *validator.Validate, logger zerolog.Logger) FeedbackService {
	return &feedbackService{
		feedback:    feedback,
		submissions: submissions,
		revisions:   revisions,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "feedback_service").Logger(),
	}
}

func (s *feedbackService) Create(ctx context.Context, submissionID uint, author ActivityActor, payload dto.FeedbackCreateRequest) (dto.FeedbackResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FeedbackResponse{}, err
	}

	if err := s.targetExists(ctx, submissionID, payload.Kind); err != nil {
		return dto.FeedbackResponse{}, err
	}

	entry := models.TaskFeedback{
		SubmissionID: submissionID,
		Kind:         payload.Kind,
		FeedbackText: s.sanitizer.Sanitize(payload.FeedbackText),
		AuthorID:     author.ID,
		IsFromLeader: author.Role == "leader",
	}

	if err := s.feedback.Create(ctx, &entry); err != nil {
		return dto.FeedbackResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Str("kind", entry.Kind).
		Uint("author_id", author.ID).
		Msg("feedback recorded")

	return dto.NewFeedbackResponse(entry), nil
}

func (s *feedbackService) ListBySubmission(ctx context.Context, submissionID uint, kind string) ([]dto.FeedbackResponse, error) {
	entries, err := s.feedback.ListBySubmission(ctx, submissionID, kind)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.FeedbackResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewFeedbackResponse(entry))
	}
	return responses, nil
}

func (s *feedbackService) targetExists(ctx context.Context, submissionID uint, kind string) error {
	var err error
	if kind == models.FeedbackKindRevision {
		_, err = s.revisions.GetByID(ctx, submissionID)
	} else {
		_, err = s.submissions.GetByID(ctx, submissionID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeedbackTargetNotFound
		}
		return err
	}
	return nil
}
