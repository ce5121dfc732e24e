package classification

import (
	"context"

	"github.com/qme/qme/internal/domain/measure"
)

// Params are the run parameters handed to the classifier alongside the
// measure definition.
type Params struct {
	EffectiveDate int64  `json:"effective_date"`
	TestBatch     string `json:"test_batch"`
}

// Classifier is the external measure-logic engine. It decides, for a single
// patient record, which measure groups the patient belongs to. The engine
// treats it as a pure function; failures surface as *ClassificationError.
type Classifier interface {
	Classify(ctx context.Context, def *measure.Definition, params Params, patientID string) (*Doc, error)
}

// PatientSource enumerates the patient ids that belong to a test batch. The
// patient records themselves live with the classifier, not in this engine.
type PatientSource interface {
	PatientIDs(ctx context.Context, testBatch string) ([]string, error)
}

// DefinitionSource resolves measure definitions for classification runs.
// Satisfied by measure.Service.
type DefinitionSource interface {
	GetByKey(ctx context.Context, measureID string, subID *string) (*measure.Definition, error)
}

// Overlay re-applies manual exclusions onto the cache after a classification
// run. Satisfied by exclusion.Service.
type Overlay interface {
	Apply(ctx context.Context, measureID string, subID *string) (int64, error)
}
