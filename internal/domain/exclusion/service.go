package exclusion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service manages the manual-exclusion registry and applies it onto the
// classification cache.
type Service struct {
	repo  Repository
	cache CacheFlagger
	log   zerolog.Logger
}

func NewService(repo Repository, cache CacheFlagger, log zerolog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Apply overlays the registry onto the cache: every cached document for
// (measureID, subID) whose patient is registered gets manual_exclusion set.
// The overlay is additive and idempotent; it never clears a flag for a
// patient whose record was removed. Clearing requires re-classification.
// Returns the number of documents updated.
func (s *Service) Apply(ctx context.Context, measureID string, subID *string) (int64, error) {
	records, err := s.repo.ListByMeasure(ctx, measureID, subID)
	if err != nil {
		return 0, fmt.Errorf("list exclusions for measure %s: %w", measureID, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool, len(records))
	patientIDs := make([]string, 0, len(records))
	for _, rec := range records {
		if !seen[rec.PatientID] {
			seen[rec.PatientID] = true
			patientIDs = append(patientIDs, rec.PatientID)
		}
	}

	n, err := s.cache.SetManualExclusion(ctx, measureID, subID, patientIDs)
	if err != nil {
		return 0, fmt.Errorf("flag manual exclusions for measure %s: %w", measureID, err)
	}

	s.log.Debug().
		Str("measure_id", measureID).
		Int("registered", len(patientIDs)).
		Int64("flagged", n).
		Msg("exclusion overlay applied")

	return n, nil
}

func (s *Service) AddExclusion(ctx context.Context, rec *Record) error {
	if rec.MeasureID == "" {
		return fmt.Errorf("measure_id is required")
	}
	if rec.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	return s.repo.Create(ctx, rec)
}

func (s *Service) RemoveExclusion(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListExclusions(ctx context.Context, measureID string, subID *string) ([]*Record, error) {
	return s.repo.ListByMeasure(ctx, measureID, subID)
}
