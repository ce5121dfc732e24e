package measure

import (
	"time"

	"github.com/google/uuid"
)

// Definition maps to the measure_def table. A definition carries the display
// identity of a clinical quality measure and the population group codes its
// classifier emits. sub_id distinguishes sub-measures under one measure id;
// nil means the measure has a single undivided population.
type Definition struct {
	ID            uuid.UUID `db:"id" json:"id"`
	MeasureID     string    `db:"measure_id" json:"measure_id"`
	SubID         *string   `db:"sub_id" json:"sub_id,omitempty"`
	NQFID         string    `db:"nqf_id" json:"nqf_id"`
	Name          *string   `db:"name" json:"name,omitempty"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Category      *string   `db:"category" json:"category,omitempty"`
	PopulationIDs []string  `db:"population_ids" json:"population_ids,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
