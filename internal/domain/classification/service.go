package classification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Service orchestrates classification runs: it drives the external classifier
// over a batch or a single patient, writes the resulting documents to the
// cache, and re-applies the manual-exclusion overlay afterward.
type Service struct {
	cache      CacheRepository
	classifier Classifier
	patients   PatientSource
	defs       DefinitionSource
	overlay    Overlay
	log        zerolog.Logger
}

func NewService(cache CacheRepository, classifier Classifier, patients PatientSource, defs DefinitionSource, overlay Overlay, log zerolog.Logger) *Service {
	return &Service{
		cache:      cache,
		classifier: classifier,
		patients:   patients,
		defs:       defs,
		overlay:    overlay,
		log:        log,
	}
}

// ClassifyBatch classifies every patient in the key's test batch, upserting
// one cache document per patient, then re-applies the exclusion overlay.
// Returns the number of documents written.
func (s *Service) ClassifyBatch(ctx context.Context, key Key) (int, error) {
	def, err := s.defs.GetByKey(ctx, key.MeasureID, key.SubID)
	if err != nil {
		return 0, fmt.Errorf("lookup measure %s: %w", key.MeasureID, err)
	}

	patientIDs, err := s.patients.PatientIDs(ctx, key.TestBatch)
	if err != nil {
		return 0, fmt.Errorf("list patients for batch %s: %w", key.TestBatch, err)
	}

	params := Params{EffectiveDate: key.EffectiveDate, TestBatch: key.TestBatch}
	count := 0
	for _, pid := range patientIDs {
		doc, err := s.classifier.Classify(ctx, def, params, pid)
		if err != nil {
			return count, err
		}
		s.stamp(doc, key, pid)
		if err := s.cache.Upsert(ctx, doc); err != nil {
			return count, fmt.Errorf("cache classification for patient %s: %w", pid, err)
		}
		count++
	}

	flagged, err := s.overlay.Apply(ctx, key.MeasureID, key.SubID)
	if err != nil {
		return count, fmt.Errorf("apply exclusion overlay: %w", err)
	}

	s.log.Info().
		Str("measure_id", key.MeasureID).
		Str("test_batch", key.TestBatch).
		Int64("effective_date", key.EffectiveDate).
		Int("classified", count).
		Int64("manually_excluded", flagged).
		Msg("batch classification complete")

	return count, nil
}

// ClassifyPatient classifies a single patient and caches the result. The
// overlay is re-run afterward; its cost is bounded by the size of the
// exclusion registry for the measure.
func (s *Service) ClassifyPatient(ctx context.Context, key Key, patientID string) (*Doc, error) {
	def, err := s.defs.GetByKey(ctx, key.MeasureID, key.SubID)
	if err != nil {
		return nil, fmt.Errorf("lookup measure %s: %w", key.MeasureID, err)
	}

	params := Params{EffectiveDate: key.EffectiveDate, TestBatch: key.TestBatch}
	doc, err := s.classifier.Classify(ctx, def, params, patientID)
	if err != nil {
		return nil, err
	}
	s.stamp(doc, key, patientID)

	if err := s.cache.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("cache classification for patient %s: %w", patientID, err)
	}

	if _, err := s.overlay.Apply(ctx, key.MeasureID, key.SubID); err != nil {
		return nil, fmt.Errorf("apply exclusion overlay: %w", err)
	}

	return s.cache.Get(ctx, key, patientID)
}

// EvaluateInline classifies one patient and returns the document without
// touching the cache or the overlay. Classifier failures surface verbatim as
// *ClassificationError.
func (s *Service) EvaluateInline(ctx context.Context, key Key, patientID string) (*Doc, error) {
	def, err := s.defs.GetByKey(ctx, key.MeasureID, key.SubID)
	if err != nil {
		return nil, fmt.Errorf("lookup measure %s: %w", key.MeasureID, err)
	}

	params := Params{EffectiveDate: key.EffectiveDate, TestBatch: key.TestBatch}
	doc, err := s.classifier.Classify(ctx, def, params, patientID)
	if err != nil {
		return nil, err
	}
	s.stamp(doc, key, patientID)
	return doc, nil
}

// stamp enforces the cache identity invariant regardless of what the
// classifier echoed back.
func (s *Service) stamp(doc *Doc, key Key, patientID string) {
	doc.MeasureID = key.MeasureID
	doc.SubID = key.SubID
	doc.EffectiveDate = key.EffectiveDate
	doc.TestBatch = key.TestBatch
	doc.PatientID = patientID
}
