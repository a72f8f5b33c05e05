package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// GroupRepository exposes group membership and project phase lookups.
type GroupRepository interface {
	ListActiveMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error)
	ListPhasesForProject(ctx context.Context, projectID uint) ([]models.ProjectPhase, error)
	GetPhase(ctx context.Context, phaseID uint) (models.ProjectPhase, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository instantiates the repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) ListActiveMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

func (r *groupRepository) ListPhasesForProject(ctx context.Context, projectID uint) ([]models.ProjectPhase, error) {
	var phases []models.ProjectPhase
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("phase_number ASC").
		Find(&phases).Error; err != nil {
		return nil, err
	}

	return phases, nil
}

func (r *groupRepository) GetPhase(ctx context.Context, phaseID uint) (models.ProjectPhase, error) {
	var phase models.ProjectPhase
	if err := r.db.WithContext(ctx).First(&phase, phaseID).Error; err != nil {
		return models.ProjectPhase{}, err
	}

	return phase, nil
}
