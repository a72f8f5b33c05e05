package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// FrozenSubmissionRepository persists grading snapshots. Insert always
// appends a new row; Upsert replaces any existing snapshot for the same
// (task, student, phase, group) scope.
type FrozenSubmissionRepository interface {
	Insert(ctx context.Context, record *models.FrozenTaskSubmission) error
	Upsert(ctx context.Context, record *models.FrozenTaskSubmission) error
	ListByPhaseAndGroup(ctx context.Context, phaseID, groupID uint) ([]models.FrozenTaskSubmission, error)
}

type frozenSubmissionRepository struct {
	db *gorm.DB
}

// NewFrozenSubmissionRepository instantiates the repository.
func NewFrozenSubmissionRepository(db *gorm.DB) FrozenSubmissionRepository {
	return &frozenSubmissionRepository{db: db}
}

func (r *frozenSubmissionRepository) Insert(ctx context.Context, record *models.FrozenTaskSubmission) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *frozenSubmissionRepository) Upsert(ctx context.Context, record *models.FrozenTaskSubmission) error {
	var existing models.FrozenTaskSubmission
	err := r.db.WithContext(ctx).
		Where("task_id = ?", record.TaskID).
		Where("student_id = ?", record.StudentID).
		Where("phase_id = ?", record.PhaseID).
		Where("group_id = ?", record.GroupID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(record).Error
		}
		return err
	}

	record.ID = existing.ID
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *frozenSubmissionRepository) ListByPhaseAndGroup(ctx context.Context, phaseID, groupID uint) ([]models.FrozenTaskSubmission, error) {
	var records []models.FrozenTaskSubmission
	if err := r.db.WithContext(ctx).
		Where("phase_id = ?", phaseID).
		Where("group_id = ?", groupID).
		Order("frozen_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
