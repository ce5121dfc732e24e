package classification

import (
	"encoding/json"
	"fmt"
)

// ClassificationError is returned when the external classifier reports a
// non-success status for a patient. Payload carries the classifier's error
// body verbatim; the engine never rewrites or retries it.
type ClassificationError struct {
	PatientID string
	Status    string
	Payload   json.RawMessage
}

func (e *ClassificationError) Error() string {
	if len(e.Payload) > 0 {
		return fmt.Sprintf("classification failed for patient %s (status %s): %s", e.PatientID, e.Status, e.Payload)
	}
	return fmt.Sprintf("classification failed for patient %s (status %s)", e.PatientID, e.Status)
}
