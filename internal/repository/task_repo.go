package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// TaskFilter narrows task queries.
type TaskFilter struct {
	PhaseID    *uint
	ProjectID  *uint
	AssignedTo *uint
	Status     *string
}

// TaskRepository defines data operations for tasks.
type TaskRepository interface {
	GetByID(ctx context.Context, id uint) (models.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	ListForPhase(ctx context.Context, phaseID uint) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdateAttempts(ctx context.Context, id uint, attempts int) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository instantiates the repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return models.Task{}, err
	}

	return task, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Where("is_active = ?", true)

	if filter.PhaseID != nil {
		query = query.Where("phase_id = ?", *filter.PhaseID)
	}

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}

	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var tasks []models.Task
	if err := query.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) ListForPhase(ctx context.Context, phaseID uint) ([]models.Task, error) {
	return r.List(ctx, TaskFilter{PhaseID: &phaseID})
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *taskRepository) UpdateAttempts(ctx context.Context, id uint, attempts int) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Update("current_attempts", attempts).Error
}
