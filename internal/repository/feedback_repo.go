package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// FeedbackRepository persists append-only submission feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.TaskFeedback) error
	ListBySubmission(ctx context.Context, submissionID uint, kind string) ([]models.TaskFeedback, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository instantiates the repository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.TaskFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *feedbackRepository) ListBySubmission(ctx context.Context, submissionID uint, kind string) ([]models.TaskFeedback, error) {
	var feedback []models.TaskFeedback
	query := r.db.WithContext(ctx).Where("submission_id = ?", submissionID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Order("created_at ASC").Find(&feedback).Error; err != nil {
		return nil, err
	}

	return feedback, nil
}
