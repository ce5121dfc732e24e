package measure

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo DefinitionRepository
}

func NewService(repo DefinitionRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateDefinition(ctx context.Context, d *Definition) error {
	if d.MeasureID == "" {
		return fmt.Errorf("measure_id is required")
	}
	if d.NQFID == "" {
		return fmt.Errorf("nqf_id is required")
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) GetDefinition(ctx context.Context, id uuid.UUID) (*Definition, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByKey looks up a definition by its measure id and optional sub-measure id.
func (s *Service) GetByKey(ctx context.Context, measureID string, subID *string) (*Definition, error) {
	return s.repo.GetByKey(ctx, measureID, subID)
}

func (s *Service) UpdateDefinition(ctx context.Context, d *Definition) error {
	if d.NQFID == "" {
		return fmt.Errorf("nqf_id is required")
	}
	return s.repo.Update(ctx, d)
}

func (s *Service) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListDefinitions(ctx context.Context, limit, offset int) ([]*Definition, int, error) {
	return s.repo.List(ctx, limit, offset)
}
