package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// RevisionRepository defines data operations for revision submissions.
type RevisionRepository interface {
	GetByID(ctx context.Context, id uint) (models.RevisionSubmission, error)
	ListByTaskAndStudent(ctx context.Context, taskID, studentID uint) ([]models.RevisionSubmission, error)
	ListByTask(ctx context.Context, taskID uint) ([]models.RevisionSubmission, error)
	CountByOriginal(ctx context.Context, originalSubmissionID uint) (int64, error)
	Create(ctx context.Context, revision *models.RevisionSubmission) error
	Update(ctx context.Context, revision *models.RevisionSubmission) error
}

type revisionRepository struct {
	db *gorm.DB
}

// NewRevisionRepository instantiates the repository.
func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{db: db}
}

func (r *revisionRepository) GetByID(ctx context.Context, id uint) (models.RevisionSubmission, error) {
	var revision models.RevisionSubmission
	if err := r.db.WithContext(ctx).First(&revision, id).Error; err != nil {
		return models.RevisionSubmission{}, err
	}

	return revision, nil
}

func (r *revisionRepository) ListByTaskAndStudent(ctx context.Context, taskID, studentID uint) ([]models.RevisionSubmission, error) {
	var revisions []models.RevisionSubmission
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Where("submitted_by = ?", studentID).
		Order("created_at DESC").
		Find(&revisions).Error; err != nil {
		return nil, err
	}

	return revisions, nil
}

func (r *revisionRepository) ListByTask(ctx context.Context, taskID uint) ([]models.RevisionSubmission, error) {
	var revisions []models.RevisionSubmission
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&revisions).Error; err != nil {
		return nil, err
	}

	return revisions, nil
}

func (r *revisionRepository) CountByOriginal(ctx context.Context, originalSubmissionID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RevisionSubmission{}).
		Where("original_submission_id = ?", originalSubmissionID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *revisionRepository) Create(ctx context.Context, revision *models.RevisionSubmission) error {
	return r.db.WithContext(ctx).Create(revision).Error
}

func (r *revisionRepository) Update(ctx context.Context, revision *models.RevisionSubmission) error {
	return r.db.WithContext(ctx).Save(revision).Error
}
