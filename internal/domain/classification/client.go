package classification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/qme/qme/internal/domain/measure"
)

// HTTPClassifier talks to the external classifier service. It implements
// Classifier and PatientSource: the classifier owns the raw patient records,
// so batch enumeration goes through it as well.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClassifier(baseURL string) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type classifyRequest struct {
	MeasureID     string   `json:"measure_id"`
	SubID         *string  `json:"sub_id,omitempty"`
	NQFID         string   `json:"nqf_id"`
	PopulationIDs []string `json:"population_ids,omitempty"`
	EffectiveDate int64    `json:"effective_date"`
	TestBatch     string   `json:"test_batch"`
	PatientID     string   `json:"patient_id"`
}

type classifyFailure struct {
	Status  string          `json:"status"`
	Payload json.RawMessage `json:"payload"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, def *measure.Definition, params Params, patientID string) (*Doc, error) {
	body, err := json.Marshal(classifyRequest{
		MeasureID:     def.MeasureID,
		SubID:         def.SubID,
		NQFID:         def.NQFID,
		PopulationIDs: def.PopulationIDs,
		EffectiveDate: params.EffectiveDate,
		TestBatch:     params.TestBatch,
		PatientID:     patientID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		failure := classifyFailure{Status: resp.Status}
		if jsonErr := json.Unmarshal(raw, &failure); jsonErr != nil || len(failure.Payload) == 0 {
			failure.Payload = raw
		}
		if failure.Status == "" {
			failure.Status = resp.Status
		}
		return nil, &ClassificationError{
			PatientID: patientID,
			Status:    failure.Status,
			Payload:   failure.Payload,
		}
	}

	var doc Doc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode classification document: %w", err)
	}
	return &doc, nil
}

func (c *HTTPClassifier) PatientIDs(ctx context.Context, testBatch string) ([]string, error) {
	u := fmt.Sprintf("%s/patients?test_batch=%s", c.baseURL, url.QueryEscape(testBatch))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build patients request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list patients: classifier returned %s", resp.Status)
	}

	var out struct {
		PatientIDs []string `json:"patient_ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode patient list: %w", err)
	}
	return out.PatientIDs, nil
}
