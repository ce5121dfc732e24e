package exclusion

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDuplicate is returned by Create when the patient already has an active
// exclusion for the (measure_id, sub_id).
var ErrDuplicate = errors.New("patient already has an active exclusion for this measure")

type Repository interface {
	Create(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByMeasure(ctx context.Context, measureID string, subID *string) ([]*Record, error)
}

// CacheFlagger is the slice of the classification cache the overlay needs:
// bulk-setting the manual-exclusion marker. Satisfied by
// classification.CacheRepository.
type CacheFlagger interface {
	SetManualExclusion(ctx context.Context, measureID string, subID *string, patientIDs []string) (int64, error)
}
