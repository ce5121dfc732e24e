package report

import (
	"time"

	"github.com/google/uuid"
)

// Result maps to the measure_result table. One row is written per
// aggregation call; rows are append-only and never mutated, forming the
// audit trail of measure evaluations.
type Result struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	MeasureID     string      `db:"measure_id" json:"measure_id"`
	SubID         *string     `db:"sub_id" json:"sub_id,omitempty"`
	NQFID         *string     `db:"nqf_id" json:"nqf_id,omitempty"`
	EffectiveDate int64       `db:"effective_date" json:"effective_date"`
	TestBatch     string      `db:"test_batch" json:"test_batch"`
	Filters       *FilterSpec `db:"filters" json:"filters,omitempty"`

	Population    int `db:"population" json:"population"`
	Denominator   int `db:"denominator" json:"denominator"`
	Numerator     int `db:"numerator" json:"numerator"`
	Antinumerator int `db:"antinumerator" json:"antinumerator"`
	Exclusions    int `db:"exclusions" json:"exclusions"`
	DenExcep      int `db:"denexcep" json:"denexcep"`

	// Considered is the number of classification documents summed into the
	// counters; manually excluded documents are not part of it.
	Considered int `db:"considered" json:"considered"`

	// ExecutionTime is whole seconds from the supplied start timestamp to
	// result assembly; nil when no start timestamp was provided.
	ExecutionTime *int64 `db:"execution_time" json:"execution_time,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
