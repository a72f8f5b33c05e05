package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// SubmissionRepository defines data operations for original task submissions.
// List results are ordered most recent first, matching what the snapshot
// selector expects.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.TaskSubmission, error)
	ListByTaskAndStudent(ctx context.Context, taskID, studentID uint) ([]models.TaskSubmission, error)
	ListByTask(ctx context.Context, taskID uint) ([]models.TaskSubmission, error)
	CountByTaskAndStudent(ctx context.Context, taskID, studentID uint) (int64, error)
	Create(ctx context.Context, submission *models.TaskSubmission) error
	Update(ctx context.Context, submission *models.TaskSubmission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.TaskSubmission, error) {
	var submission models.TaskSubmission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.TaskSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByTaskAndStudent(ctx context.Context, taskID, studentID uint) ([]models.TaskSubmission, error) {
	var submissions []models.TaskSubmission
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Where("submitted_by = ?", studentID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByTask(ctx context.Context, taskID uint) ([]models.TaskSubmission, error) {
	var submissions []models.TaskSubmission
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) CountByTaskAndStudent(ctx context.Context, taskID, studentID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TaskSubmission{}).
		Where("task_id = ?", taskID).
		Where("submitted_by = ?", studentID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.TaskSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.TaskSubmission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}
