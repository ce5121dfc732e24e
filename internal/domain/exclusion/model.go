package exclusion

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the exclusion table. It marks an administratively asserted
// exclusion for a patient under a measure, made outside the classification
// pipeline. At most one active record exists per (measure_id, sub_id,
// patient_id).
type Record struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MeasureID string    `db:"measure_id" json:"measure_id"`
	SubID     *string   `db:"sub_id" json:"sub_id,omitempty"`
	PatientID string    `db:"patient_id" json:"patient_id"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
