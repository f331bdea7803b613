package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aidosq/jumys-deals/internal/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, tx *gorm.DB, project *model.Project) error {
	return scope(r.db, tx).WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := scope(r.db, tx).WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// MarkInProgress records the hired freelancer and moves the project to
// in_progress when a proposal on it is accepted.
func (r *ProjectRepository) MarkInProgress(ctx context.Context, tx *gorm.DB, id, freelancerID uuid.UUID) error {
	return scope(r.db, tx).WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              model.ProjectStatusInProgress,
			"hired_freelancer_id": freelancerID,
		}).Error
}
