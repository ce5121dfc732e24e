package classification

import (
	"context"
)

// CacheRepository is the classification cache: one document per patient per
// evaluation-run key, upserted by classification runs and flag-updated by the
// exclusion overlay.
type CacheRepository interface {
	// Upsert writes the document, replacing any existing document with the
	// same (measure_id, sub_id, effective_date, test_batch, patient_id).
	Upsert(ctx context.Context, d *Doc) error
	// Get returns the cached document for one patient under the key.
	Get(ctx context.Context, key Key, patientID string) (*Doc, error)
	// FindByKey returns all cached documents for the key.
	FindByKey(ctx context.Context, key Key) ([]*Doc, error)
	// SetManualExclusion sets manual_exclusion = true on every document for
	// (measureID, subID) whose patient id is in patientIDs, across all
	// effective dates and test batches. Returns the number of rows updated.
	SetManualExclusion(ctx context.Context, measureID string, subID *string, patientIDs []string) (int64, error)
}
