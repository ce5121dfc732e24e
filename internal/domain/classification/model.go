package classification

import (
	"time"

	"github.com/google/uuid"
)

// Key identifies one evaluation run of a measure: which measure (and
// sub-measure), as of which effective date, over which test batch.
type Key struct {
	MeasureID     string  `json:"measure_id"`
	SubID         *string `json:"sub_id,omitempty"`
	EffectiveDate int64   `json:"effective_date"`
	TestBatch     string  `json:"test_batch"`
}

// ProviderPerformance is one provider attribution window on a patient,
// already restricted to the measurement period by the classifier. A nil
// ProviderID means the window has no provider assigned.
type ProviderPerformance struct {
	ProviderID *string `json:"provider_id,omitempty"`
	StartDate  *int64  `json:"start_date,omitempty"`
	EndDate    *int64  `json:"end_date,omitempty"`
}

// Doc maps to the classification table. Exactly one row exists per
// (measure_id, sub_id, effective_date, test_batch, patient_id);
// re-classification overwrites it.
//
// The six counter fields are each 0 or 1 on a single document and are summed
// across documents at aggregation time.
type Doc struct {
	ID            uuid.UUID `db:"id" json:"id"`
	MeasureID     string    `db:"measure_id" json:"measure_id"`
	SubID         *string   `db:"sub_id" json:"sub_id,omitempty"`
	EffectiveDate int64     `db:"effective_date" json:"effective_date"`
	TestBatch     string    `db:"test_batch" json:"test_batch"`
	PatientID     string    `db:"patient_id" json:"patient_id"`

	Population    int `db:"population" json:"population"`
	Denominator   int `db:"denominator" json:"denominator"`
	Numerator     int `db:"numerator" json:"numerator"`
	Antinumerator int `db:"antinumerator" json:"antinumerator"`
	Exclusions    int `db:"exclusions" json:"exclusions"`
	DenExcep      int `db:"denexcep" json:"denexcep"`

	ProviderPerformances []ProviderPerformance `db:"provider_performances" json:"provider_performances,omitempty"`
	RaceCode             *string               `db:"race_code" json:"race_code,omitempty"`
	EthnicityCode        *string               `db:"ethnicity_code" json:"ethnicity_code,omitempty"`
	Gender               *string               `db:"gender" json:"gender,omitempty"`
	Languages            []string              `db:"languages" json:"languages,omitempty"`

	// ManualExclusion is tri-state: nil (unset) and false both mean
	// "not manually excluded."
	ManualExclusion *bool `db:"manual_exclusion" json:"manual_exclusion,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Key returns the evaluation-run key of the document.
func (d *Doc) Key() Key {
	return Key{
		MeasureID:     d.MeasureID,
		SubID:         d.SubID,
		EffectiveDate: d.EffectiveDate,
		TestBatch:     d.TestBatch,
	}
}

// ManuallyExcluded reports whether the manual-exclusion flag is set.
func (d *Doc) ManuallyExcluded() bool {
	return d.ManualExclusion != nil && *d.ManualExclusion
}
